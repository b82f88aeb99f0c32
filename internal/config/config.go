package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/gcs"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/kafka"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/pubsub"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/redis"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultPort       = "8080"
)

// Config holds the dashboard configuration
type Config struct {
	InstanceID string              `yaml:"instance_id"`
	Server     ServerConfig        `yaml:"server"`
	Log        LogConfig           `yaml:"log"`
	Vapi       VapiConfig          `yaml:"vapi"`
	Sheets     SheetsConfig        `yaml:"sheets"`
	Session    SessionConfig       `yaml:"session"`
	Batch      BatchConfig         `yaml:"batch"`
	Monitor    MonitorConfig       `yaml:"monitor"`
	Redis      redis.RedisConfig   `yaml:"redis"`
	PubSub     pubsub.PubSubConfig `yaml:"pubsub"`
	Kafka      kafka.KafkaConfig   `yaml:"kafka"`
	Export     gcs.GCSConfig       `yaml:"export"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the zap preset and level
type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// VapiConfig holds the calling-API defaults applied to new sessions
type VapiConfig struct {
	APIKey string `yaml:"api_key"`
}

// SheetsConfig configures the spreadsheet collaborator
type SheetsConfig struct {
	Connected bool `yaml:"connected"`
	LogRows   int  `yaml:"log_rows"`
}

// SessionConfig controls idle session eviction
type SessionConfig struct {
	MaxIdle         time.Duration `yaml:"max_idle"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// BatchConfig holds the batch dialer defaults
type BatchConfig struct {
	Size  int           `yaml:"size"`
	Delay time.Duration `yaml:"delay"`
}

// MonitorConfig controls the websocket monitor stream
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		InstanceID: hostname(),
		Server: ServerConfig{
			Port:            DefaultPort,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Env: "development", Level: "info"},
		Sheets: SheetsConfig{
			LogRows: 50,
		},
		Session: SessionConfig{
			MaxIdle:         2 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Batch: BatchConfig{
			Size:  10,
			Delay: 5 * time.Second,
		},
		Monitor: MonitorConfig{Interval: 5 * time.Second},
		Redis:   redis.RedisConfig{Port: "6379"},
		PubSub:  pubsub.PubSubConfig{Source: "astra-fleet-dashboard"},
		Kafka:   kafka.KafkaConfig{Topic: "astra-fleet-call-events"},
		Export:  gcs.GCSConfig{Prefix: "exports", URLExpiry: 24 * time.Hour},
	}
}

// Load builds the configuration from defaults, the YAML file at path when it
// exists, then environment variables. An empty path uses DefaultConfigFile.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitString(v, ",")
	}
	cfg.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Log.Env = getEnv("LOG_ENV", cfg.Log.Env)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Vapi.APIKey = getEnv("VAPI_API_KEY", cfg.Vapi.APIKey)
	if os.Getenv("GOOGLE_SHEETS_CREDENTIALS") != "" {
		cfg.Sheets.Connected = true
	}
	cfg.Sheets.LogRows = getEnvAsInt("SHEETS_LOG_ROWS", cfg.Sheets.LogRows)

	cfg.Session.MaxIdle = getEnvAsDuration("SESSION_MAX_IDLE", cfg.Session.MaxIdle)
	cfg.Session.CleanupInterval = getEnvAsDuration("SESSION_CLEANUP_INTERVAL", cfg.Session.CleanupInterval)

	cfg.Batch.Size = getEnvAsInt("BATCH_SIZE", cfg.Batch.Size)
	cfg.Batch.Delay = getEnvAsDuration("BATCH_DELAY", cfg.Batch.Delay)
	cfg.Monitor.Interval = getEnvAsDuration("MONITOR_INTERVAL", cfg.Monitor.Interval)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.PubSub.ProjectID = getEnv("PUBSUB_PROJECT_ID", cfg.PubSub.ProjectID)
	cfg.PubSub.TopicName = getEnv("PUBSUB_TOPIC_NAME", cfg.PubSub.TopicName)
	cfg.PubSub.Source = getEnv("PUBSUB_SOURCE", cfg.PubSub.Source)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitString(v, ",")
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Export.BucketName = getEnv("EXPORT_GCS_BUCKET", cfg.Export.BucketName)
	cfg.Export.Prefix = getEnv("EXPORT_GCS_PREFIX", cfg.Export.Prefix)
}

// Validate checks values that would break the service at runtime
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Batch.Size < 1 || c.Batch.Size > 50 {
		return fmt.Errorf("batch size must be within [1, 50], got %d", c.Batch.Size)
	}
	if c.Batch.Delay < 0 {
		return fmt.Errorf("batch delay cannot be negative")
	}
	if c.Monitor.Interval < time.Second {
		return fmt.Errorf("monitor interval must be at least 1s, got %s", c.Monitor.Interval)
	}
	if c.Session.MaxIdle <= 0 || c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("session max idle and cleanup interval must be positive")
	}
	return nil
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool { return c.Redis.Host != "" }

// PubSubEnabled reports whether a Pub/Sub topic is configured
func (c *Config) PubSubEnabled() bool { return c.PubSub.ProjectID != "" && c.PubSub.TopicName != "" }

// KafkaEnabled reports whether Kafka brokers are configured
func (c *Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 && c.Kafka.Topic != "" }

// ExportArchiveEnabled reports whether exports are copied to GCS
func (c *Config) ExportArchiveEnabled() bool { return c.Export.BucketName != "" }

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "astra-fleet-dashboard"
}
