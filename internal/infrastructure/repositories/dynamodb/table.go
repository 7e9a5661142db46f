package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"proctorhub/pkg/tracing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of *dynamodb.Client the repositories call.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// table maps records of type T onto a DynamoDB table with a single string
// hash key.
type table[T any] struct {
	api     API
	name    string
	hashKey string
}

func (t table[T]) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.hashKey: &types.AttributeValueMemberS{Value: id},
	}
}

// get returns (nil, nil) when the item is absent.
func (t table[T]) get(ctx context.Context, id string) (_ *T, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "dynamodb", "get", t.name)
	defer func() { tracing.End(span, err) }()

	out, err := t.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            t.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from %s: %w", t.name, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s item: %w", t.name, err)
	}
	return &v, nil
}

func (t table[T]) put(ctx context.Context, v *T) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "dynamodb", "put", t.name)
	defer func() { tracing.End(span, err) }()

	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s item: %w", t.name, err)
	}

	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item into %s: %w", t.name, err)
	}
	return nil
}

// putNew writes v only if no item with its key exists and reports whether
// the write happened.
func (t table[T]) putNew(ctx context.Context, v *T) (_ bool, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "dynamodb", "put_new", t.name)
	defer func() { tracing.End(span, err) }()

	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s item: %w", t.name, err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(t.hashKey))).
		Build()
	if err != nil {
		return false, fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(t.name),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to put item into %s: %w", t.name, err)
	}
	return true, nil
}

// scan reads the whole table, optionally filtered.
func (t table[T]) scan(ctx context.Context, filter *expression.ConditionBuilder) (_ []*T, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "dynamodb", "scan", t.name)
	defer func() { tracing.End(span, err) }()

	input := &dynamodb.ScanInput{TableName: aws.String(t.name)}
	if filter != nil {
		expr, err := expression.NewBuilder().WithFilter(*filter).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build filter: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	out := make([]*T, 0)
	paginator := dynamodb.NewScanPaginator(t.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
		}

		var items []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s items: %w", t.name, err)
		}
		for i := range items {
			out = append(out, &items[i])
		}
	}
	return out, nil
}

func (t table[T]) delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "dynamodb", "delete", t.name)
	defer func() { tracing.End(span, err) }()

	_, err = t.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       t.key(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from %s: %w", t.name, err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// Ping issues a cheap point read against tableName
func Ping(ctx context.Context, api API, tableName string) error {
	_, err := api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"roomId": &types.AttributeValueMemberS{Value: "__health__"},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb ping failed: %w", err)
	}
	return nil
}
