package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"proctorhub/internal/core/ports"
	"proctorhub/internal/core/services"
	httphandlers "proctorhub/internal/handlers/http"
	"proctorhub/internal/infrastructure/awsclient"
	"proctorhub/internal/infrastructure/broadcast"
	"proctorhub/internal/infrastructure/distributed"
	"proctorhub/internal/infrastructure/middleware"
	"proctorhub/internal/infrastructure/monitoring"
	"proctorhub/internal/infrastructure/objectstore/disk"
	s3store "proctorhub/internal/infrastructure/objectstore/s3"
	"proctorhub/internal/infrastructure/reliability"
	"proctorhub/internal/infrastructure/repositories"
	redisrepo "proctorhub/internal/infrastructure/repositories/redis"
	"proctorhub/pkg/circuitbreaker"
	"proctorhub/pkg/config"
	"proctorhub/pkg/logger"
	"proctorhub/pkg/retry"
	"proctorhub/pkg/tracing"
	"proctorhub/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables still win
	_ = godotenv.Load()

	configPath := os.Getenv("PROCTOR_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// a missing file yields defaults plus environment overrides
	cfg, loadErr := config.Load(configPath)
	if loadErr != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if loadErr != nil {
		log.Fatalw("failed to load configuration", "path", configPath, "error", loadErr)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "proctorhub",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Server.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	repos, err := repositories.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open identity store", "error", err)
	}

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	photos, papers, diskStore, err := newObjectStores(ctx, cfg, collector, log)
	if err != nil {
		log.Fatalw("failed to create object stores", "error", err)
	}

	hub := broadcast.NewHub(broadcast.Config{
		PingInterval: cfg.WebSocket.PingInterval,
		PongTimeout:  cfg.WebSocket.PongTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		SendBuffer:   cfg.WebSocket.SendBufferSize,
		CheckOrigin:  originChecker(cfg.Auth.AllowedOrigins),
	}, log)
	collector.ObserveDashboards(hub.ClientCount)

	health := monitoring.NewHealthChecker()
	health.AddPingCheck("identity_store", repos.HealthCheck, cfg.Monitoring.HealthCheckInterval, cfg.Monitoring.HealthCheckTimeout)

	var publisher ports.EventPublisher = hub
	var relay *distributed.EventBus
	if cfg.Events.RelayEnabled {
		client := repos.RedisClient()
		if client == nil {
			client, err = redisrepo.NewRedisClient(redisrepo.ClientOptions{
				Address:   cfg.Redis.Address,
				Password:  cfg.Redis.Password,
				DB:        cfg.Redis.DB,
				PoolSize:  cfg.Redis.PoolSize,
				KeyPrefix: cfg.Redis.KeyPrefix,
			}, log)
			if err != nil {
				log.Fatalw("failed to connect event relay", "error", err)
			}
			defer client.Close()
		}

		relay = distributed.NewEventBus(client, cfg.Events.Channel, utils.GenerateInstanceID(), hub, log)
		publisher = relay
		health.AddRedisCheck("event_relay", client, cfg.Monitoring.HealthCheckInterval, cfg.Monitoring.HealthCheckTimeout)

		// go-redis resubscribes on its own after connection loss
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil && !errors.Is(err, distributed.ErrClosed) {
				log.Errorw("event relay stopped", "error", err)
			}
		}()
	}
	health.StartBackgroundChecks(ctx)

	roomService := services.NewRoomService(repos.Rooms, repos.Degrees, repos.Photos, photos, cfg.ObjectStore.SignedURLTTL, publisher, collector, log)
	logService := services.NewLogService(services.LogServiceConfig{
		MaxEntriesPerRoom: cfg.Logs.MaxEntriesPerRoom,
		SubscriberBuffer:  cfg.Logs.SubscriberBuffer,
	}, collector, log)
	studentService := services.NewStudentService(repos.Degrees, repos.Photos, photos, cfg.ObjectStore.SignedURLTTL, log)
	paperService, stopPaperCache := services.NewPaperService(repos.Papers, papers, cfg.ObjectStore.SignedURLTTL, log)
	defer stopPaperCache()
	authService := services.NewAuthService(services.AuthConfig{
		JWTSecret:            cfg.Auth.JWTSecret,
		AccessTokenTTL:       cfg.Auth.AccessTokenTTL,
		ExaminerUsername:     cfg.Auth.ExaminerUsername,
		ExaminerPasswordHash: cfg.Auth.ExaminerPasswordHash,
	})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := httphandlers.Dependencies{
		Rooms:       roomService,
		Logs:        logService,
		Students:    studentService,
		Papers:      paperService,
		Auth:        authService,
		Dashboards:  hub.HandleWebSocket,
		DiskObjects: diskStore,
		Health:      health,
		Metrics:     collector,
		Logger:      zapLogger,
	}
	if cfg.Monitoring.PrometheusEnabled {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	router := httphandlers.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      corsHandler(cfg.Auth.AllowedOrigins).Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting proctorhub server",
			"address", cfg.Server.Address,
			"backend", repos.Backend,
			"object_store", cfg.ObjectStore.Backend,
			"relay", cfg.Events.RelayEnabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// dashboards hold hijacked connections that Shutdown does not wait for
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}

	if relay != nil {
		if err := relay.Close(); err != nil {
			log.Errorw("error closing event relay", "error", err)
		}
	}
	stop()
	if err := repos.Close(); err != nil {
		log.Errorw("error closing identity store", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error flushing traces", "error", err)
	}

	log.Info("proctorhub server stopped")
}

// newObjectStores builds the photo and paper stores, each behind its own
// retry and circuit breaker, whose state is exported as a gauge. The disk store is returned so its links can be served.
func newObjectStores(ctx context.Context, cfg *config.Config, collector *monitoring.PrometheusCollector, log *zap.SugaredLogger) (ports.ObjectStore, ports.ObjectStore, *disk.Store, error) {
	retryCfg := retry.DefaultConfig()
	cbCfg := circuitbreaker.DefaultConfig()
	cbCfg.FailureThreshold = cfg.ObjectStore.CircuitBreaker.FailureThreshold
	cbCfg.SuccessThreshold = cfg.ObjectStore.CircuitBreaker.SuccessThreshold
	cbCfg.Timeout = cfg.ObjectStore.CircuitBreaker.Timeout

	wrap := func(store ports.ObjectStore, name string) ports.ObjectStore {
		w := reliability.NewObjectStoreWrapper(store, name, retryCfg, cbCfg, collector, log)
		collector.ObserveCircuitBreaker(name, w.GetCircuitBreakerStats)
		return w
	}

	switch cfg.ObjectStore.Backend {
	case config.ObjectStoreS3:
		awsCfg, err := awsclient.Load(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		client := awsclient.NewS3(awsCfg, cfg)
		photos := s3store.New(client, cfg.ObjectStore.S3.PhotosBucket, awsCfg.Region)
		papers := s3store.New(client, cfg.ObjectStore.S3.PapersBucket, awsCfg.Region)
		return wrap(photos, "photos"), wrap(papers, "papers"), nil, nil

	case config.ObjectStoreDisk:
		store, err := disk.New(cfg.ObjectStore.Disk.BasePath, cfg.ObjectStore.Disk.PublicURL, cfg.ObjectStore.Disk.SigningKey)
		if err != nil {
			return nil, nil, nil, err
		}
		// keys carry a millisecond prefix, so photos and papers can share a directory
		return wrap(store, "photos"), wrap(store, "papers"), store, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported object store backend %q", cfg.ObjectStore.Backend)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func corsHandler(allowed []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})
}
