package dynamodb

import (
	"context"
	"fmt"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const roomsHashKey = "roomId"

type DynamoRoomRepository struct {
	table table[domain.Room]
}

func NewDynamoRoomRepository(api API, tableName string) ports.RoomRepository {
	return &DynamoRoomRepository{
		table: table[domain.Room]{api: api, name: tableName, hashKey: roomsHashKey},
	}
}

func (r *DynamoRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	ok, err := r.table.putNew(ctx, room)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRoomExists
	}
	return nil
}

func (r *DynamoRoomRepository) GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	room, err := r.table.get(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *DynamoRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	return r.table.scan(ctx, nil)
}

// AppendParticipant uses list_append guarded by attribute_exists so a
// concurrent admission can't be lost and a deleted room isn't recreated.
func (r *DynamoRoomRepository) AppendParticipant(ctx context.Context, id domain.RoomID, p domain.Participant) (*domain.Room, error) {
	participants := expression.Name("participants")
	update := expression.Set(participants, expression.ListAppend(
		expression.IfNotExists(participants, expression.Value([]domain.Participant{})),
		expression.Value([]domain.Participant{p}),
	))
	cond := expression.AttributeExists(expression.Name(roomsHashKey))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	out, err := r.table.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table.name),
		Key:                       r.table.key(string(id)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to append participant in %s: %w", r.table.name, err)
	}

	var room domain.Room
	if err := attributevalue.UnmarshalMap(out.Attributes, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

func (r *DynamoRoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	return r.table.delete(ctx, string(id))
}
