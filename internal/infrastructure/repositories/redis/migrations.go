package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proctorhub/internal/core/domain"
	"proctorhub/pkg/distributed"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const currentSchemaVersion = 2

// Migration represents a keyspace migration
type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, client *redis.Client, keys keyspace) error
}

const migrationLockTTL = 30 * time.Second

// Migrate runs all pending migrations under prefix. Instances starting
// together serialize on a lock; the later ones find the schema current.
func Migrate(ctx context.Context, client *redis.Client, prefix string, logger *zap.SugaredLogger) (err error) {
	keys := newKeyspace(prefix)

	lock := distributed.NewLock(client, keys.migrationLock(), migrationLockTTL)
	if err := lock.Lock(ctx, migrationLockTTL); err != nil {
		return fmt.Errorf("failed to lock schema: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(context.WithoutCancel(ctx)); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	currentVersion, err := getSchemaVersion(ctx, client, keys)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion >= currentSchemaVersion {
		if logger != nil {
			logger.Infow("schema is up to date",
				"current_version", currentVersion,
				"target_version", currentSchemaVersion,
			)
		}
		return nil
	}

	for _, migration := range getMigrations() {
		if migration.Version <= currentVersion {
			continue
		}
		if logger != nil {
			logger.Infow("running migration",
				"version", migration.Version,
				"description", migration.Description,
			)
		}

		if err := migration.Up(ctx, client, keys); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := setSchemaVersion(ctx, client, keys, migration.Version); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
	}

	if logger != nil {
		logger.Infow("all migrations completed",
			"final_version", currentSchemaVersion,
		)
	}

	return nil
}

func getSchemaVersion(ctx context.Context, client *redis.Client, keys keyspace) (int, error) {
	val, err := client.Get(ctx, keys.schemaVersion()).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func setSchemaVersion(ctx context.Context, client *redis.Client, keys keyspace, version int) error {
	return client.Set(ctx, keys.schemaVersion(), version, 0).Err()
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "rebuild collection index sets from record keys",
			Up: func(ctx context.Context, client *redis.Client, keys keyspace) error {
				for _, collection := range []string{roomsCollection, degreeCollection, photosCollection, papersCollection} {
					if err := reindex(ctx, client, keys, collection); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version:     2,
			Description: "index papers by qp code",
			Up: func(ctx context.Context, client *redis.Client, keys keyspace) error {
				papers := records[domain.Paper]{client: client, keys: keys, collection: papersCollection}
				all, err := papers.list(ctx)
				if err != nil {
					return err
				}
				for _, p := range all {
					if err := client.SAdd(ctx, keys.qpCode(p.QPCode), p.PaperID).Err(); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// reindex adds every record key of collection to its index set.
func reindex(ctx context.Context, client *redis.Client, keys keyspace, collection string) error {
	pattern := keys.record(collection, "*")
	prefixLen := len(keys.record(collection, ""))
	indexKey := keys.index(collection)

	iter := client.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == indexKey {
			continue
		}
		id := key[prefixLen:]
		// Skip secondary index keys such as paper:qpcode:<code>.
		if strings.Contains(id, ":") {
			continue
		}
		if err := client.SAdd(ctx, indexKey, id).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
