package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// maxAppendRetries bounds the optimistic-lock loop of AppendParticipant.
const maxAppendRetries = 10

type RedisRoomRepository struct {
	records records[domain.Room]
}

func NewRedisRoomRepository(client *redis.Client, prefix string) ports.RoomRepository {
	return &RedisRoomRepository{
		records: records[domain.Room]{client: client, keys: newKeyspace(prefix), collection: roomsCollection},
	}
}

func (r *RedisRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	ok, err := r.records.putNX(ctx, string(room.RoomID), room)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRoomExists
	}
	return nil
}

func (r *RedisRoomRepository) GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	room, err := r.records.get(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (r *RedisRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	return r.records.list(ctx)
}

// AppendParticipant watches the room key and retries when another writer
// commits between the read and the MULTI.
func (r *RedisRoomRepository) AppendParticipant(ctx context.Context, id domain.RoomID, p domain.Participant) (*domain.Room, error) {
	client := r.records.client
	key := r.records.key(string(id))

	var updated *domain.Room
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return domain.ErrRoomNotFound
		}
		if err != nil {
			return err
		}

		var room domain.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return fmt.Errorf("failed to unmarshal room: %w", err)
		}
		room.Participants = append(room.Participants, p)

		out, err := json.Marshal(&room)
		if err != nil {
			return fmt.Errorf("failed to marshal room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &room
		}
		return err
	}

	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		err := client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to append participant in Redis: %w", err)
	}

	return nil, fmt.Errorf("append participant to room %s: too much contention", id)
}

func (r *RedisRoomRepository) Delete(ctx context.Context, id domain.RoomID) error {
	return r.records.delete(ctx, string(id))
}
