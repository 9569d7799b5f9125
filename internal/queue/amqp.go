package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"geofence/pkg/errors"
)

// AMQPQueue publishes jobs to a durable RabbitMQ queue and consumes them
// with manual acknowledgements.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	name string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
	closed     bool
}

// DialAMQP connects to url and declares the durable queue name. prefetch
// caps unacknowledged deliveries per consumer.
func DialAMQP(url, name string, prefetch int) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	_, err = ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", name, err)
	}

	return &AMQPQueue{conn: conn, ch: ch, name: name}, nil
}

func (q *AMQPQueue) Enqueue(ctx context.Context, job Job) error {
	body, err := job.encode()
	if err != nil {
		return errors.Wrap(err, "failed to encode job")
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.ErrQueueClosed
	}

	err = q.ch.PublishWithContext(
		publishCtx,
		"",     // default exchange routes by queue name
		q.name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID.String(),
			Timestamp:    job.EnqueuedAt,
			Body:         body,
		},
	)
	return errors.Wrap(err, "failed to publish job")
}

func (q *AMQPQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, errors.ErrQueueClosed
	}
	if q.deliveries != nil {
		return q.deliveries, nil
	}

	msgs, err := q.ch.Consume(
		q.name,
		"",    // consumer tag generated by the server
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	q.deliveries = msgs
	return msgs, nil
}

func (q *AMQPQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	msgs, err := q.consume()
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-msgs:
		if !ok {
			return nil, errors.ErrQueueClosed
		}

		job, err := decodeJob(msg.Body)
		if err != nil {
			_ = msg.Nack(false, false)
			return nil, errors.Wrap(err, "failed to decode job")
		}

		return &Delivery{
			Job: job,
			ack: func(context.Context) error {
				return msg.Ack(false)
			},
		}, nil
	}
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
