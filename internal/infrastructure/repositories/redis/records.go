package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// putNXScript writes ARGV[1] to KEYS[1] and indexes ARGV[2] in KEYS[2]
// unless KEYS[1] exists. The index is touched first so a failure there
// leaves nothing behind.
var putNXScript = redis.NewScript(`
if redis.call("exists", KEYS[1]) == 1 then
	return 0
end
redis.call("sadd", KEYS[2], ARGV[2])
redis.call("set", KEYS[1], ARGV[1])
return 1
`)

// records stores JSON values under keyspace.record keys and tracks their
// IDs in an index set so the collection can be scanned.
type records[T any] struct {
	client     *redis.Client
	keys       keyspace
	collection string
}

func (r records[T]) key(id string) string {
	return r.keys.record(r.collection, id)
}

func (r records[T]) put(ctx context.Context, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", r.collection, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(id), data, 0)
		pipe.SAdd(ctx, r.keys.index(r.collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", r.collection, err)
	}
	return nil
}

// putNX stores v only if id is unused and reports whether it did.
func (r records[T]) putNX(ctx context.Context, id string, v *T) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s: %w", r.collection, err)
	}

	keys := []string{r.key(id), r.keys.index(r.collection)}
	stored, err := putNXScript.Run(ctx, r.client, keys, data, id).Int()
	if err != nil {
		return false, fmt.Errorf("failed to store %s in Redis: %w", r.collection, err)
	}
	return stored == 1, nil
}

// get returns (nil, nil) when id is absent.
func (r records[T]) get(ctx context.Context, id string) (*T, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from Redis: %w", r.collection, err)
	}
	return r.decode(data)
}

func (r records[T]) decode(data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", r.collection, err)
	}
	return &v, nil
}

func (r records[T]) list(ctx context.Context) ([]*T, error) {
	ids, err := r.client.SMembers(ctx, r.keys.index(r.collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s index: %w", r.collection, err)
	}
	return r.many(ctx, ids)
}

// many loads ids in one round trip, skipping IDs whose value is gone.
func (r records[T]) many(ctx context.Context, ids []string) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s from Redis: %w", r.collection, err)
	}

	for _, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		v, err := r.decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r records[T]) delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(id))
		pipe.SRem(ctx, r.keys.index(r.collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", r.collection, err)
	}
	return nil
}
