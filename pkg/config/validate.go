// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
)

// ValidateCore ensures critical configuration is present.
func (c *Config) ValidateCore() error {
	var missing []string

	if strings.TrimSpace(c.Database.URL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Queue.Backend == "redis" && strings.TrimSpace(c.Redis.URL) == "" {
		missing = append(missing, "REDIS_URL")
	}
	if c.Queue.Backend == "amqp" && strings.TrimSpace(c.Queue.AMQPURL) == "" {
		missing = append(missing, "AMQP_URL")
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "SERVER_PORT")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Queue.Backend {
	case "redis", "amqp", "memory":
	default:
		return fmt.Errorf("unsupported QUEUE_BACKEND %q", c.Queue.Backend)
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Queue.Concurrency)
	}

	return nil
}

// AuthEnabled reports whether bearer authentication should guard the API.
func (c *Config) AuthEnabled() bool {
	return strings.TrimSpace(c.JWT.Secret) != "" && getBoolEnv("AUTH_ENABLED", true)
}
