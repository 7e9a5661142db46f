package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ProvisionAPI is the subset of *dynamodb.Client used to create tables.
type ProvisionAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// TableSpec names a table and its string hash key.
type TableSpec struct {
	Name    string
	HashKey string
}

// Tables returns the specs for the four tables the repositories read.
func Tables(rooms, degree, students, papers string) []TableSpec {
	return []TableSpec{
		{Name: rooms, HashKey: roomsHashKey},
		{Name: degree, HashKey: degreeHashKey},
		{Name: students, HashKey: studentsHashKey},
		{Name: papers, HashKey: papersHashKey},
	}
}

// EnsureTables creates any missing table. Existing tables are left as they
// are. A positive wait blocks until each table is ACTIVE.
func EnsureTables(ctx context.Context, api ProvisionAPI, specs []TableSpec, readCapacity, writeCapacity int64, wait time.Duration, logger *zap.SugaredLogger) error {
	for _, spec := range specs {
		_, err := api.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(spec.Name),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(spec.HashKey), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(spec.HashKey), KeyType: types.KeyTypeHash},
			},
			ProvisionedThroughput: &types.ProvisionedThroughput{
				ReadCapacityUnits:  aws.Int64(readCapacity),
				WriteCapacityUnits: aws.Int64(writeCapacity),
			},
		})

		var inUse *types.ResourceInUseException
		switch {
		case err == nil:
			logger.Infow("created table", "table", spec.Name, "hash_key", spec.HashKey)
		case errors.As(err, &inUse):
			logger.Infow("table already exists", "table", spec.Name)
		default:
			return fmt.Errorf("failed to create table %s: %w", spec.Name, err)
		}

		if wait <= 0 {
			continue
		}
		waiter := dynamodb.NewTableExistsWaiter(api)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.Name)}, wait); err != nil {
			return fmt.Errorf("table %s did not become active: %w", spec.Name, err)
		}
	}
	return nil
}
