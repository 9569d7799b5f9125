package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"geofence/pkg/errors"
)

// RedisQueue keeps pending jobs in a Redis list. Dequeue atomically moves a
// job into the consumer's own processing list, Ack removes it from there.
type RedisQueue struct {
	client      *redis.Client
	key         string
	processing  string
	pollTimeout time.Duration
}

// NewRedisQueue returns a queue stored under key. In-flight jobs are kept
// under key:processing:consumer. pollTimeout bounds each blocking pop so
// cancellation is noticed.
func NewRedisQueue(client *redis.Client, key, consumer string, pollTimeout time.Duration) *RedisQueue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	if consumer == "" {
		consumer = "default"
	}
	return &RedisQueue{
		client:      client,
		key:         key,
		processing:  ProcessingKey(key, consumer),
		pollTimeout: pollTimeout,
	}
}

// ProcessingKey is the list holding consumer's unacknowledged jobs.
func ProcessingKey(key, consumer string) string {
	return key + ":processing:" + consumer
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := job.encode()
	if err != nil {
		return errors.Wrap(err, "failed to encode job")
	}
	return errors.Wrap(q.client.LPush(ctx, q.key, data).Err(), "failed to enqueue job")
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		raw, err := q.client.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", q.pollTimeout).Result()
		if err == redis.Nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, "failed to dequeue job")
		}

		job, err := decodeJob([]byte(raw))
		if err != nil {
			// a payload nobody can decode would otherwise sit in processing forever
			_ = q.client.LRem(ctx, q.processing, 1, raw).Err()
			return nil, errors.Wrap(err, "failed to decode job")
		}

		return &Delivery{
			Job: job,
			ack: func(ctx context.Context) error {
				return q.client.LRem(ctx, q.processing, 1, raw).Err()
			},
		}, nil
	}
}

// Recover moves jobs this consumer left unacknowledged in a previous run
// back onto the pending list. Other consumers' in-flight jobs are not
// touched. It returns how many were moved.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.key, "RIGHT", "RIGHT").Err()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, errors.Wrap(err, "failed to recover jobs")
		}
		moved++
	}
}

// Len returns the number of pending jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	return nil
}
