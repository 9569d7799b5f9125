package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"geofence/pkg/config"
)

const memoryCapacity = 1024

// Open builds the backend named by cfg.Backend. rdb is only used by the
// redis backend and may be nil otherwise.
func Open(cfg config.QueueConfig, rdb *redis.Client) (Queue, error) {
	switch cfg.Backend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis queue backend needs a redis client")
		}
		return NewRedisQueue(rdb, cfg.Name, cfg.Consumer, cfg.PollTimeout), nil
	case "amqp":
		return DialAMQP(cfg.AMQPURL, cfg.Name, cfg.Concurrency)
	case "memory":
		return NewMemoryQueue(memoryCapacity), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.Backend)
	}
}
