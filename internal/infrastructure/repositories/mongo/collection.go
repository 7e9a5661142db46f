package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection stores records of type T keyed by _id.
type collection[T any] struct {
	coll *mongo.Collection
}

// findOne returns (nil, nil) when nothing matches.
func (c collection[T]) findOne(ctx context.Context, filter any) (*T, error) {
	var v T
	err := c.coll.FindOne(ctx, filter).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find in %s: %w", c.coll.Name(), err)
	}
	return &v, nil
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

// insert reports false when a document with the same _id exists.
func (c collection[T]) insert(ctx context.Context, v *T) (bool, error) {
	_, err := c.coll.InsertOne(ctx, v)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert into %s: %w", c.coll.Name(), err)
	}
	return true, nil
}

func (c collection[T]) replace(ctx context.Context, id string, v *T) error {
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, v, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c collection[T]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var items []T
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.coll.Name(), err)
	}

	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.coll.Name(), err)
	}
	return nil
}
