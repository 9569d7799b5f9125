package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/geofence")
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("FCM_TIMEOUT", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.Equal(t, "geofence:alerts", cfg.Queue.Name)
	assert.Equal(t, 4, cfg.Queue.Concurrency)
	assert.NotEmpty(t, cfg.Queue.Consumer)
	assert.Equal(t, 10*time.Second, cfg.Push.Timeout)
	require.NoError(t, cfg.ValidateCore())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "AMQP")
	t.Setenv("WORKER_CONCURRENCY", "12")
	t.Setenv("FCM_TIMEOUT", "3s")
	t.Setenv("QUEUE_CONSUMER", "worker-2")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := Load()

	assert.Equal(t, "amqp", cfg.Queue.Backend)
	assert.Equal(t, 12, cfg.Queue.Concurrency)
	assert.Equal(t, "worker-2", cfg.Queue.Consumer)
	assert.Equal(t, 3*time.Second, cfg.Push.Timeout)
	assert.Equal(t, "cache:6379", cfg.Redis.URL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestValidateCore(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{URL: "postgres://localhost/geofence"},
			Redis:    RedisConfig{URL: "localhost:6379"},
			Queue:    QueueConfig{Backend: "redis", Concurrency: 1},
		}
	}

	cfg := base()
	cfg.Database.URL = ""
	assert.ErrorContains(t, cfg.ValidateCore(), "DATABASE_URL")

	cfg = base()
	cfg.Queue.Backend = "kafka"
	assert.ErrorContains(t, cfg.ValidateCore(), "QUEUE_BACKEND")

	cfg = base()
	cfg.Queue.Concurrency = 0
	assert.ErrorContains(t, cfg.ValidateCore(), "WORKER_CONCURRENCY")

	cfg = base()
	cfg.Queue.Backend = "memory"
	cfg.Redis.URL = ""
	assert.NoError(t, cfg.ValidateCore())
}

func TestAuthEnabled(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "")
	cfg := &Config{}
	assert.False(t, cfg.AuthEnabled())

	cfg.JWT.Secret = "s3cret"
	assert.True(t, cfg.AuthEnabled())

	t.Setenv("AUTH_ENABLED", "false")
	assert.False(t, cfg.AuthEnabled())
}
