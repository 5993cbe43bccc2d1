package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures API credentials, collector limits, storage, cache and worker settings.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	Collector   CollectorConfig   `yaml:"collector"`
	Storage     StorageConfig     `yaml:"storage"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
	Worker      WorkerConfig      `yaml:"worker"`
	Detection   DetectionConfig   `yaml:"detection"`
}

type CredentialsConfig struct {
	// X API bearer token. If empty, read from env X_BEARER_TOKEN
	BearerToken string `yaml:"bearerToken"`
}

type CollectorConfig struct {
	BaseURL string `yaml:"baseURL"`
	// Requests per second and burst for the shared limiter
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// Retry policy for 429/5xx responses
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	// Max items fetched per list (reposts, quotes, replies)
	Limit int `yaml:"limit"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Addr       string        `yaml:"addr"`
	DB         int           `yaml:"db"`
	SummaryTTL time.Duration `yaml:"summaryTTL"`
	AccountTTL time.Duration `yaml:"accountTTL"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	BatchSize    int           `yaml:"batchSize"`
}

type DetectionConfig struct {
	// Patterns at or above this confidence count as high-confidence in summaries
	HighConfidence float64 `yaml:"highConfidence"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Collector: CollectorConfig{
			BaseURL:     "https://api.twitter.com",
			RPS:         1,
			Burst:       1,
			MaxAttempts: 4,
			BaseBackoff: 500 * time.Millisecond,
			Limit:       100,
		},
		Storage:   StorageConfig{DBPath: "./spreadscope.db"},
		Cache:     CacheConfig{Enabled: false, Addr: "localhost:6379", SummaryTTL: 24 * time.Hour, AccountTTL: 6 * time.Hour},
		Metrics:   MetricsConfig{Addr: ""},
		Logging:   LoggingConfig{Level: "info"},
		Worker:    WorkerConfig{PollInterval: 30 * time.Second, BatchSize: 5},
		Detection: DetectionConfig{HighConfidence: 0.7},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.BearerToken == "" {
		c.Credentials.BearerToken = os.Getenv("X_BEARER_TOKEN")
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = os.Getenv("REDIS_ADDR")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Load reads YAML config from path. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
