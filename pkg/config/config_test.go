package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORAGE_DRIVER", "QUEUE_LOCK_MODE", "TRACKER_POLL_INTERVAL", "TRACKER_GET_READY_POSITION", "ALLOWED_ORIGINS", "WAITWISE_API_URL", "STREAM_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, LockModeMemory, cfg.Queue.LockMode)
	assert.Equal(t, 5*time.Second, cfg.Queue.PollInterval)
	assert.Equal(t, 2, cfg.Queue.GetReadyThreshold)
	assert.Equal(t, 15, cfg.Queue.MinutesPerPatient)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:8080", cfg.Stream.APIURL)
	assert.Equal(t, 8081, cfg.Stream.Port)
}

func TestLoad_QueueOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("QUEUE_LOCK_MODE", "none")
	t.Setenv("TRACKER_POLL_INTERVAL", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://waitwise.health, http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, LockModeNone, cfg.Queue.LockMode)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.PollInterval)
	assert.Equal(t, []string{"https://waitwise.health", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}

func TestValidate_RedisLockNeedsRedis(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{Driver: StorageDriverMemory},
		Queue:   QueueConfig{LockMode: LockModeRedis, PollInterval: time.Second, GetReadyThreshold: 2},
		Redis:   RedisConfig{Enabled: false},
	}

	assert.ErrorContains(t, cfg.Validate(), "REDIS_ENABLED")
}

func TestDatabaseConfig_DSNs(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "ww", Password: "secret", Database: "waitwise", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=ww password=secret dbname=waitwise sslmode=disable", db.DatabaseDSN())
	assert.Equal(t, "postgres://ww:secret@db:5432/waitwise?sslmode=disable", db.DatabaseURL())
}
