package repositories

import (
	"context"
	"fmt"

	"proctorhub/internal/core/ports"
	"proctorhub/internal/infrastructure/awsclient"
	dynamorepo "proctorhub/internal/infrastructure/repositories/dynamodb"
	"proctorhub/internal/infrastructure/repositories/memory"
	mongorepo "proctorhub/internal/infrastructure/repositories/mongo"
	redisrepo "proctorhub/internal/infrastructure/repositories/redis"
	"proctorhub/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Repositories groups the identity store collections for one backend
type Repositories struct {
	Backend string
	Rooms   ports.RoomRepository
	Degrees ports.DegreeRepository
	Photos  ports.StudentPhotoRepository
	Papers  ports.PaperRepository

	redisClient *redis.Client
	ping        func(ctx context.Context) error
	closers     []func() error
}

// New builds the repositories for cfg.Storage.Backend. Connection failures are
// returned, there is no silent fallback to memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Repositories, error) {
	r := &Repositories{Backend: cfg.Storage.Backend}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		r.Rooms = memory.NewMemoryRoomRepository()
		r.Degrees = memory.NewMemoryDegreeRepository()
		r.Photos = memory.NewMemoryStudentPhotoRepository()
		r.Papers = memory.NewMemoryPaperRepository()

	case config.BackendRedis:
		client, err := redisrepo.NewRedisClient(redisrepo.ClientOptions{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		prefix := cfg.Redis.KeyPrefix
		r.Rooms = redisrepo.NewRedisRoomRepository(client, prefix)
		r.Degrees = redisrepo.NewRedisDegreeRepository(client, prefix)
		r.Photos = redisrepo.NewRedisStudentPhotoRepository(client, prefix)
		r.Papers = redisrepo.NewRedisPaperRepository(client, prefix)
		r.redisClient = client
		r.ping = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		r.closers = append(r.closers, func() error { return redisrepo.CloseRedisClient(client) })

	case config.BackendDynamoDB:
		awsCfg, err := awsclient.Load(ctx, cfg)
		if err != nil {
			return nil, err
		}
		api := awsclient.NewDynamoDB(awsCfg, cfg)
		r.Rooms = dynamorepo.NewDynamoRoomRepository(api, cfg.DynamoDB.RoomsTable)
		r.Degrees = dynamorepo.NewDynamoDegreeRepository(api, cfg.DynamoDB.DegreeTable)
		r.Photos = dynamorepo.NewDynamoStudentPhotoRepository(api, cfg.DynamoDB.StudentsTable)
		r.Papers = dynamorepo.NewDynamoPaperRepository(api, cfg.DynamoDB.PapersTable)
		r.ping = func(ctx context.Context) error { return dynamorepo.Ping(ctx, api, cfg.DynamoDB.RoomsTable) }

	case config.BackendMongo:
		client, err := mongorepo.Connect(ctx, cfg.Mongo.URI, logger)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = mongorepo.Disconnect(client)
			return nil, err
		}
		r.Rooms = mongorepo.NewMongoRoomRepository(db)
		r.Degrees = mongorepo.NewMongoDegreeRepository(db)
		r.Photos = mongorepo.NewMongoStudentPhotoRepository(db)
		r.Papers = mongorepo.NewMongoPaperRepository(db)
		r.ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		r.closers = append(r.closers, func() error { return mongorepo.Disconnect(client) })

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}

	logger.Infow("identity store ready", "backend", r.Backend)
	return r, nil
}

// RedisClient returns the shared client when the backend is Redis
func (r *Repositories) RedisClient() *redis.Client {
	return r.redisClient
}

// HealthCheck pings the backing store
func (r *Repositories) HealthCheck(ctx context.Context) error {
	if r.ping == nil {
		return nil
	}
	return r.ping(ctx)
}

// Close releases backend connections
func (r *Repositories) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
