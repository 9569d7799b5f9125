// Package queue carries alert dispatch jobs from the request path to the
// worker pool. Delivery is at-least-once: a job whose worker dies before
// Ack may be handed out again.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job asks the dispatcher to record an alert and notify the user's devices.
type Job struct {
	ID         uuid.UUID `json:"id"`
	UserID     int64     `json:"user_id"`
	GeofenceID *int64    `json:"geofence_id,omitempty"`
	Message    string    `json:"message"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob stamps a fresh job ID and enqueue time.
func NewJob(userID int64, geofenceID *int64, message string) Job {
	return Job{
		ID:         uuid.New(),
		UserID:     userID,
		GeofenceID: geofenceID,
		Message:    message,
		EnqueuedAt: time.Now().UTC(),
	}
}

func (j Job) encode() ([]byte, error) {
	return json.Marshal(j)
}

func decodeJob(data []byte) (Job, error) {
	var j Job
	err := json.Unmarshal(data, &j)
	return j, err
}

// Delivery is a dequeued job awaiting acknowledgement.
type Delivery struct {
	Job Job
	ack func(ctx context.Context) error
}

// Ack removes the job from the backend for good.
func (d *Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Enqueuer is the producer side used by the request path.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Queue is implemented by every backend.
type Queue interface {
	Enqueuer
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*Delivery, error)
	Close() error
}
