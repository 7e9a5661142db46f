package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	RoomsCollection    = "rooms"
	DegreeCollection   = "degree"
	StudentsCollection = "students"
	PapersCollection   = "papers"
)

// Connect opens a client and verifies it against the primary
func Connect(ctx context.Context, uri string, logger *zap.SugaredLogger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if logger != nil {
		logger.Infow("connected to MongoDB")
	}
	return client, nil
}

// EnsureIndexes creates the secondary indexes the repositories query by.
// qpCode is not unique: several uploads may share a code.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(PapersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "qpCode", Value: 1}},
		Options: options.Index().SetName("qpCode_1"),
	})
	if err != nil {
		return fmt.Errorf("failed to create papers.qpCode index: %w", err)
	}
	return nil
}

// Disconnect closes the client with a bounded wait
func Disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
