package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"proctorhub/internal/infrastructure/awsclient"
	"proctorhub/internal/infrastructure/objectstore/disk"
	dynamorepo "proctorhub/internal/infrastructure/repositories/dynamodb"
	mongorepo "proctorhub/internal/infrastructure/repositories/mongo"
	redisrepo "proctorhub/internal/infrastructure/repositories/redis"
	"proctorhub/pkg/config"
	"proctorhub/pkg/logger"
	"proctorhub/pkg/retry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// provision prepares the configured backends: tables, indexes, keyspace
// migrations and buckets. It is safe to run repeatedly.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	wait := flag.Duration("wait", 2*time.Minute, "how long to wait for new DynamoDB tables to become active")
	flag.Parse()

	_ = godotenv.Load()

	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if loadErr != nil {
		log.Fatalw("failed to load configuration", "path", *configPath, "error", loadErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *wait+time.Minute)
	defer cancel()

	// the store may still be starting next to us, as in docker compose
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 8

	if err := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
		return provisionStore(ctx, cfg, *wait, log)
	}); err != nil {
		log.Fatalw("failed to provision identity store", "backend", cfg.Storage.Backend, "error", err)
	}

	if err := provisionObjectStore(ctx, cfg, log); err != nil {
		log.Fatalw("failed to provision object store", "backend", cfg.ObjectStore.Backend, "error", err)
	}

	log.Infow("provisioning complete", "backend", cfg.Storage.Backend, "object_store", cfg.ObjectStore.Backend)
}

func provisionStore(ctx context.Context, cfg *config.Config, wait time.Duration, log *zap.SugaredLogger) error {
	switch cfg.Storage.Backend {
	case config.BackendDynamoDB:
		awsCfg, err := awsclient.Load(ctx, cfg)
		if err != nil {
			return err
		}
		tables := dynamorepo.Tables(cfg.DynamoDB.RoomsTable, cfg.DynamoDB.DegreeTable, cfg.DynamoDB.StudentsTable, cfg.DynamoDB.PapersTable)
		return dynamorepo.EnsureTables(ctx, awsclient.NewDynamoDB(awsCfg, cfg), tables,
			cfg.DynamoDB.ReadCapacity, cfg.DynamoDB.WriteCapacity, wait, log)

	case config.BackendRedis:
		client, err := redisrepo.NewRedisClient(redisrepo.ClientOptions{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, log)
		if err != nil {
			return err
		}
		return redisrepo.CloseRedisClient(client)

	case config.BackendMongo:
		client, err := mongorepo.Connect(ctx, cfg.Mongo.URI, log)
		if err != nil {
			return err
		}
		defer mongorepo.Disconnect(client)
		return mongorepo.EnsureIndexes(ctx, client.Database(cfg.Mongo.Database))

	case config.BackendMemory:
		log.Info("memory backend needs no provisioning")
		return nil

	default:
		return fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

func provisionObjectStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	switch cfg.ObjectStore.Backend {
	case config.ObjectStoreS3:
		awsCfg, err := awsclient.Load(ctx, cfg)
		if err != nil {
			return err
		}
		client := awsclient.NewS3(awsCfg, cfg)
		for _, bucket := range []string{cfg.ObjectStore.S3.PhotosBucket, cfg.ObjectStore.S3.PapersBucket} {
			if err := ensureBucket(ctx, client, bucket, awsCfg.Region); err != nil {
				return err
			}
			log.Infow("bucket ready", "bucket", bucket)
		}
		return nil

	case config.ObjectStoreDisk:
		_, err := disk.New(cfg.ObjectStore.Disk.BasePath, cfg.ObjectStore.Disk.PublicURL, cfg.ObjectStore.Disk.SigningKey)
		return err

	default:
		return fmt.Errorf("unsupported object store backend %q", cfg.ObjectStore.Backend)
	}
}

func ensureBucket(ctx context.Context, client *s3.Client, bucket, region string) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint
	if region != "" && region != "us-east-1" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}

	_, err := client.CreateBucket(ctx, in)
	var owned *s3types.BucketAlreadyOwnedByYou
	if err == nil || errors.As(err, &owned) {
		return nil
	}
	return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
}
