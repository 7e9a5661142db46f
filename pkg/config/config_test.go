package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("expected default storage backend %q, got %q", BackendMemory, cfg.Storage.Backend)
	}
	if cfg.ObjectStore.SignedURLTTL != time.Hour {
		t.Fatalf("expected signed url ttl of 1h, got %v", cfg.ObjectStore.SignedURLTTL)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "server address must not be empty",
			mutate: func(c *Config) { c.Server.Address = "" },
		},
		{
			name:   "write timeout must not be negative",
			mutate: func(c *Config) { c.Server.WriteTimeout = -time.Second },
		},
		{
			name:   "trusted proxy must be an IP or CIDR",
			mutate: func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "proxy.internal"} },
		},
		{
			name:   "pong timeout must exceed ping interval",
			mutate: func(c *Config) { c.WebSocket.PongTimeout = c.WebSocket.PingInterval },
		},
		{
			name:   "unknown storage backend",
			mutate: func(c *Config) { c.Storage.Backend = "cassandra" },
		},
		{
			name: "redis backend requires address",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRedis
				c.Redis.Address = ""
			},
		},
		{
			name: "dynamodb backend requires region",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendDynamoDB
				c.AWS.Region = ""
			},
		},
		{
			name: "mongo backend requires database",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendMongo
				c.Mongo.Database = ""
			},
		},
		{
			name: "s3 object store requires buckets",
			mutate: func(c *Config) {
				c.ObjectStore.Backend = ObjectStoreS3
				c.AWS.Region = "ap-south-1"
				c.ObjectStore.S3.PapersBucket = ""
			},
		},
		{
			name:   "signed url ttl must be > 0",
			mutate: func(c *Config) { c.ObjectStore.SignedURLTTL = 0 },
		},
		{
			name:   "log retention must not be negative",
			mutate: func(c *Config) { c.Logs.MaxEntriesPerRoom = -1 },
		},
		{
			name:   "subscriber buffer must be > 0",
			mutate: func(c *Config) { c.Logs.SubscriberBuffer = 0 },
		},
		{
			name: "auth requires examiner credentials",
			mutate: func(c *Config) {
				c.Auth.Enabled = true
				c.Auth.ExaminerPasswordHash = ""
			},
		},
		{
			name: "rate limiting requires rps",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.HTTP.RequestsPerSecond = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for case %q, got nil", tc.name)
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("expected default address, got %q", cfg.Server.Address)
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  address: ":9000"
storage:
  backend: redis
redis:
  address: "redis:6379"
logs:
  max_entries_per_room: 500
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("PROCTOR_LOG_LEVEL", "debug")
	t.Setenv("AWS_S3_BUCKET_NAME", "papers-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Errorf("address = %q, want :9000", cfg.Server.Address)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Errorf("backend = %q, want redis", cfg.Storage.Backend)
	}
	if cfg.Logs.MaxEntriesPerRoom != 500 {
		t.Errorf("max entries = %d, want 500", cfg.Logs.MaxEntriesPerRoom)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.ObjectStore.S3.PapersBucket != "papers-from-env" {
		t.Errorf("papers bucket = %q, want papers-from-env", cfg.ObjectStore.S3.PapersBucket)
	}
	// Untouched sections keep defaults.
	if cfg.Redis.PoolSize != 10 {
		t.Errorf("pool size = %d, want 10", cfg.Redis.PoolSize)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
