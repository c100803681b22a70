// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Progress backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Sync targets for answer results.
const (
	SyncRemote = "remote"
	SyncKafka  = "kafka"
	SyncNone   = "none"
)

// DefaultUserID is the single learner every request is made for.
const DefaultUserID = "demo-user"

// Config is the runtime configuration read from .env, the KUIZ_*
// environment and command flags.
type Config struct {
	UserID  string `validate:"required"`
	APIBase string `validate:"omitempty,url"`
	DataDir string
	DBPath  string

	ProgressBackend string `validate:"oneof=sqlite file redis memory"`
	ProgressDir     string
	RedisURL        string `validate:"required_if=ProgressBackend redis"`

	Sync         string   `validate:"oneof=remote kafka none"`
	KafkaBrokers []string `validate:"required_if=Sync kafka"`
	SyncTopic    string

	BatchLimit  int           `validate:"gt=0"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string
}

// Offline reports whether no remote API is configured.
func (c *Config) Offline() bool {
	return c.APIBase == ""
}

// Load reads .env if present, then the KUIZ_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		UserID:          getenvDefault("KUIZ_USER_ID", DefaultUserID),
		APIBase:         strings.TrimRight(os.Getenv("KUIZ_API_BASE"), "/"),
		DataDir:         getenvDefault("KUIZ_DATA_DIR", "data"),
		DBPath:          os.Getenv("KUIZ_DB"),
		ProgressBackend: strings.ToLower(getenvDefault("KUIZ_PROGRESS_BACKEND", BackendSQLite)),
		ProgressDir:     os.Getenv("KUIZ_PROGRESS_DIR"),
		RedisURL:        os.Getenv("KUIZ_REDIS_URL"),
		Sync:            strings.ToLower(os.Getenv("KUIZ_SYNC")),
		KafkaBrokers:    splitList(os.Getenv("KUIZ_KAFKA_BROKERS")),
		SyncTopic:       os.Getenv("KUIZ_SYNC_TOPIC"),
		LogLevel:        strings.ToLower(getenvDefault("KUIZ_LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenvDefault("KUIZ_LOG_FORMAT", "text")),
		LogFile:         os.Getenv("KUIZ_LOG_FILE"),
	}
	if cfg.Sync == "" {
		cfg.Sync = SyncRemote
		if cfg.Offline() {
			cfg.Sync = SyncNone
		}
	}

	var err error
	if cfg.BatchLimit, err = getenvInt("KUIZ_BATCH_LIMIT", 30); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("KUIZ_HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values and combinations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Sync == SyncRemote && c.Offline() {
		return fmt.Errorf("config: KUIZ_SYNC=remote needs KUIZ_API_BASE")
	}
	return nil
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvInt(k string, fallback int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid integer: %w", k, v, err)
	}
	return n, nil
}

func getenvDuration(k string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a valid duration: %w", k, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
