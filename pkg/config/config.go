package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Storage backends for the identity store.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
)

// Object store backends.
const (
	ObjectStoreDisk = "disk"
	ObjectStoreS3   = "s3"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"` // 0 disables the deadline; log streams always lift it
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		Environment     string        `yaml:"environment"`
		// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For
		// is believed. Empty means the peer address is the client.
		TrustedProxies  []string      `yaml:"trusted_proxies"`
	} `yaml:"server"`

	WebSocket struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		PongTimeout    time.Duration `yaml:"pong_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		SendBufferSize int           `yaml:"send_buffer_size"`
	} `yaml:"websocket"`

	Storage struct {
		Backend string `yaml:"backend"`
	} `yaml:"storage"`

	Redis struct {
		Address   string `yaml:"address"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		PoolSize  int    `yaml:"pool_size"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`

	AWS struct {
		Region          string `yaml:"region"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		Endpoint        string `yaml:"endpoint"` // LocalStack or other S3/DynamoDB compatible endpoint
	} `yaml:"aws"`

	DynamoDB struct {
		RoomsTable    string `yaml:"rooms_table"`
		DegreeTable   string `yaml:"degree_table"`
		StudentsTable string `yaml:"students_table"`
		PapersTable   string `yaml:"papers_table"`
		ReadCapacity  int64  `yaml:"read_capacity"`
		WriteCapacity int64  `yaml:"write_capacity"`
	} `yaml:"dynamodb"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	ObjectStore struct {
		Backend      string        `yaml:"backend"`
		SignedURLTTL time.Duration `yaml:"signed_url_ttl"`

		S3 struct {
			PhotosBucket string `yaml:"photos_bucket"`
			PapersBucket string `yaml:"papers_bucket"`
			UsePathStyle bool   `yaml:"use_path_style"`
		} `yaml:"s3"`

		Disk struct {
			BasePath   string `yaml:"base_path"`
			PublicURL  string `yaml:"public_url"`
			SigningKey string `yaml:"signing_key"`
		} `yaml:"disk"`

		CircuitBreaker struct {
			FailureThreshold int           `yaml:"failure_threshold"`
			SuccessThreshold int           `yaml:"success_threshold"`
			Timeout          time.Duration `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"objectstore"`

	Events struct {
		RelayEnabled bool   `yaml:"relay_enabled"`
		Channel      string `yaml:"channel"`
	} `yaml:"events"`

	Logs struct {
		MaxEntriesPerRoom int `yaml:"max_entries_per_room"`
		SubscriberBuffer  int `yaml:"subscriber_buffer"`
	} `yaml:"logs"`

	Monitoring struct {
		PrometheusEnabled   bool          `yaml:"prometheus_enabled"`
		HealthCheckTimeout  time.Duration `yaml:"health_check_timeout"`
		HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Auth struct {
		Enabled              bool          `yaml:"enabled"`
		JWTSecret            string        `yaml:"jwt_secret"`
		AccessTokenTTL       time.Duration `yaml:"access_token_ttl"`
		ExaminerUsername     string        `yaml:"examiner_username"`
		ExaminerPasswordHash string        `yaml:"examiner_password_hash"`
		AllowedOrigins       []string      `yaml:"allowed_origins"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be >= 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if _, _, err := net.ParseCIDR(proxy); err != nil && net.ParseIP(proxy) == nil {
			return fmt.Errorf("server.trusted_proxies: %q is not an IP or CIDR", proxy)
		}
	}

	// WebSocket
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("websocket.ping_interval must be > 0")
	}
	if c.WebSocket.PongTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket.pong_timeout must be > websocket.ping_interval")
	}
	if c.WebSocket.SendBufferSize <= 0 {
		return fmt.Errorf("websocket.send_buffer_size must be > 0")
	}

	// Storage
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when storage.backend=redis")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when storage.backend=redis")
		}
	case BackendDynamoDB:
		if c.AWS.Region == "" {
			return fmt.Errorf("aws.region must not be empty when storage.backend=dynamodb")
		}
		if c.DynamoDB.RoomsTable == "" || c.DynamoDB.DegreeTable == "" ||
			c.DynamoDB.StudentsTable == "" || c.DynamoDB.PapersTable == "" {
			return fmt.Errorf("dynamodb table names must not be empty")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri must not be empty when storage.backend=mongo")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("mongo.database must not be empty when storage.backend=mongo")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}

	// Object store
	switch c.ObjectStore.Backend {
	case ObjectStoreDisk:
		if c.ObjectStore.Disk.BasePath == "" {
			return fmt.Errorf("objectstore.disk.base_path must not be empty")
		}
		if c.ObjectStore.Disk.SigningKey == "" {
			return fmt.Errorf("objectstore.disk.signing_key must not be empty")
		}
	case ObjectStoreS3:
		if c.AWS.Region == "" {
			return fmt.Errorf("aws.region must not be empty when objectstore.backend=s3")
		}
		if c.ObjectStore.S3.PhotosBucket == "" || c.ObjectStore.S3.PapersBucket == "" {
			return fmt.Errorf("objectstore.s3 buckets must not be empty")
		}
	default:
		return fmt.Errorf("objectstore.backend %q is not supported", c.ObjectStore.Backend)
	}
	if c.ObjectStore.SignedURLTTL <= 0 {
		return fmt.Errorf("objectstore.signed_url_ttl must be > 0")
	}
	if c.ObjectStore.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("objectstore.circuit_breaker.failure_threshold must be > 0")
	}

	// Events
	if c.Events.RelayEnabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when events.relay_enabled=true")
		}
		if c.Events.Channel == "" {
			return fmt.Errorf("events.channel must not be empty when events.relay_enabled=true")
		}
	}

	// Logs
	if c.Logs.MaxEntriesPerRoom < 0 {
		return fmt.Errorf("logs.max_entries_per_room must be >= 0")
	}
	if c.Logs.SubscriberBuffer <= 0 {
		return fmt.Errorf("logs.subscriber_buffer must be > 0")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Auth
	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret must not be empty when auth.enabled=true")
		}
		if c.Auth.AccessTokenTTL <= 0 {
			return fmt.Errorf("auth.access_token_ttl must be > 0")
		}
		if c.Auth.ExaminerUsername == "" || c.Auth.ExaminerPasswordHash == "" {
			return fmt.Errorf("auth examiner credentials must be set when auth.enabled=true")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 0
	cfg.Server.ShutdownTimeout = 30 * time.Second
	cfg.Server.Environment = "development"

	cfg.WebSocket.PingInterval = 30 * time.Second
	cfg.WebSocket.PongTimeout = 60 * time.Second
	cfg.WebSocket.WriteTimeout = 10 * time.Second
	cfg.WebSocket.SendBufferSize = 64

	cfg.Storage.Backend = BackendMemory

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.KeyPrefix = "proctor:"

	cfg.DynamoDB.RoomsTable = "Rooms"
	cfg.DynamoDB.DegreeTable = "Degree"
	cfg.DynamoDB.StudentsTable = "Students"
	cfg.DynamoDB.PapersTable = "Papers"
	cfg.DynamoDB.ReadCapacity = 5
	cfg.DynamoDB.WriteCapacity = 5

	cfg.Mongo.URI = "mongodb://localhost:27017"
	cfg.Mongo.Database = "proctorhub"

	cfg.ObjectStore.Backend = ObjectStoreDisk
	cfg.ObjectStore.SignedURLTTL = time.Hour
	cfg.ObjectStore.S3.PhotosBucket = "student-photos-app"
	cfg.ObjectStore.S3.PapersBucket = "question-papers"
	cfg.ObjectStore.Disk.BasePath = "./data/objects"
	cfg.ObjectStore.Disk.PublicURL = "http://localhost:8080"
	cfg.ObjectStore.Disk.SigningKey = "change-me-in-production"
	cfg.ObjectStore.CircuitBreaker.FailureThreshold = 5
	cfg.ObjectStore.CircuitBreaker.SuccessThreshold = 2
	cfg.ObjectStore.CircuitBreaker.Timeout = 30 * time.Second

	cfg.Events.RelayEnabled = false
	cfg.Events.Channel = "proctor:events"

	cfg.Logs.MaxEntriesPerRoom = 0
	cfg.Logs.SubscriberBuffer = 64

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.HealthCheckTimeout = 2 * time.Second
	cfg.Monitoring.HealthCheckInterval = 30 * time.Second

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Auth.Enabled = false
	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = 8 * time.Hour
	cfg.Auth.ExaminerUsername = "examiner"
	cfg.Auth.AllowedOrigins = []string{"*"}

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("PROCTOR_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if proxies := os.Getenv("PROCTOR_TRUSTED_PROXIES"); proxies != "" {
		c.Server.TrustedProxies = nil
		for _, p := range strings.Split(proxies, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Server.TrustedProxies = append(c.Server.TrustedProxies, p)
			}
		}
	}
	if level := os.Getenv("PROCTOR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if backend := os.Getenv("PROCTOR_STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = strings.ToLower(backend)
	}
	if backend := os.Getenv("PROCTOR_OBJECTSTORE_BACKEND"); backend != "" {
		c.ObjectStore.Backend = strings.ToLower(backend)
	}
	if addr := os.Getenv("PROCTOR_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if pw := os.Getenv("PROCTOR_REDIS_PASSWORD"); pw != "" {
		c.Redis.Password = pw
	}
	if uri := os.Getenv("PROCTOR_MONGO_URI"); uri != "" {
		c.Mongo.URI = uri
	}
	if relay := os.Getenv("PROCTOR_EVENTS_RELAY"); relay != "" {
		if enabled, err := strconv.ParseBool(relay); err == nil {
			c.Events.RelayEnabled = enabled
		}
	}
	if secret := os.Getenv("PROCTOR_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if hash := os.Getenv("PROCTOR_EXAMINER_PASSWORD_HASH"); hash != "" {
		c.Auth.ExaminerPasswordHash = hash
	}

	// Names shared with the existing deployment's .env file.
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.AWS.Region = region
	}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		c.AWS.AccessKeyID = id
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" {
		c.AWS.SecretAccessKey = secret
	}
	if bucket := os.Getenv("AWS_S3_BUCKET_NAME"); bucket != "" {
		c.ObjectStore.S3.PapersBucket = bucket
	}
}
