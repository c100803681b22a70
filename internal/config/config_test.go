package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"KUIZ_USER_ID", "KUIZ_API_BASE", "KUIZ_DATA_DIR", "KUIZ_DB",
	"KUIZ_PROGRESS_BACKEND", "KUIZ_PROGRESS_DIR", "KUIZ_REDIS_URL",
	"KUIZ_SYNC", "KUIZ_KAFKA_BROKERS", "KUIZ_SYNC_TOPIC",
	"KUIZ_BATCH_LIMIT", "KUIZ_HTTP_TIMEOUT",
	"KUIZ_LOG_LEVEL", "KUIZ_LOG_FORMAT", "KUIZ_LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, cfg.UserID)
	assert.True(t, cfg.Offline())
	assert.Equal(t, BackendSQLite, cfg.ProgressBackend)
	assert.Equal(t, SyncNone, cfg.Sync)
	assert.Equal(t, 30, cfg.BatchLimit)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("KUIZ_API_BASE", "http://localhost:8000/")
	t.Setenv("KUIZ_BATCH_LIMIT", "12")
	t.Setenv("KUIZ_HTTP_TIMEOUT", "3s")
	t.Setenv("KUIZ_PROGRESS_BACKEND", "Redis")
	t.Setenv("KUIZ_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIBase)
	assert.Equal(t, SyncRemote, cfg.Sync)
	assert.Equal(t, 12, cfg.BatchLimit)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, BackendRedis, cfg.ProgressBackend)
}

func TestLoadKafkaBrokers(t *testing.T) {
	clearEnv(t)
	t.Setenv("KUIZ_SYNC", "kafka")
	t.Setenv("KUIZ_KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad limit", map[string]string{"KUIZ_BATCH_LIMIT": "many"}},
		{"zero limit", map[string]string{"KUIZ_BATCH_LIMIT": "0"}},
		{"bad timeout", map[string]string{"KUIZ_HTTP_TIMEOUT": "soon"}},
		{"unknown backend", map[string]string{"KUIZ_PROGRESS_BACKEND": "s3"}},
		{"redis without url", map[string]string{"KUIZ_PROGRESS_BACKEND": "redis"}},
		{"kafka without brokers", map[string]string{"KUIZ_SYNC": "kafka"}},
		{"remote sync offline", map[string]string{"KUIZ_SYNC": "remote"}},
		{"bad log level", map[string]string{"KUIZ_LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	// Unset rather than empty so godotenv does not skip the key.
	t.Setenv("KUIZ_USER_ID", "x")
	unsetenv(t, "KUIZ_USER_ID")
	writeFile(t, ".env", "KUIZ_USER_ID=alice\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.UserID)
}

func unsetenv(t *testing.T, k string) {
	t.Helper()
	require.NoError(t, os.Unsetenv(k))
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}
