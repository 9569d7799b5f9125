package queue

import (
	"context"
	"sync"
	"time"

	"geofence/pkg/errors"
	"geofence/pkg/logger"
)

// Handler processes one job. A returned error is logged; the job is
// acknowledged either way and never retried.
type Handler func(ctx context.Context, job Job) error

// Pool runs a fixed number of workers that drain a Queue.
type Pool struct {
	queue       Queue
	handle      Handler
	concurrency int
	logger      logger.Logger
	backoff     time.Duration
}

func NewPool(q Queue, h Handler, concurrency int, log logger.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:       q,
		handle:      h,
		concurrency: concurrency,
		logger:      log,
		backoff:     time.Second,
	}
}

// Run blocks until ctx is cancelled or the queue is closed. Jobs already
// picked up are finished before Run returns.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.work(ctx, worker)
		}(i)
	}

	p.logger.Info("Worker pool started", map[string]interface{}{
		"concurrency": p.concurrency,
	})
	wg.Wait()
	p.logger.Info("Worker pool stopped", nil)
}

func (p *Pool) work(ctx context.Context, worker int) {
	for {
		d, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, errors.ErrQueueClosed) {
				return
			}
			p.logger.Error("Failed to dequeue job", map[string]interface{}{
				"worker": worker,
				"error":  err.Error(),
			})
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}

		p.process(ctx, worker, d)
	}
}

func (p *Pool) process(ctx context.Context, worker int, d *Delivery) {
	// in-flight jobs run to completion even when shutdown has begun
	jobCtx := context.WithoutCancel(ctx)

	start := time.Now()
	if err := p.handle(jobCtx, d.Job); err != nil {
		p.logger.Error("Job failed", map[string]interface{}{
			"worker":  worker,
			"job_id":  d.Job.ID,
			"user_id": d.Job.UserID,
			"error":   err.Error(),
		})
	} else {
		p.logger.Debug("Job completed", map[string]interface{}{
			"worker":      worker,
			"job_id":      d.Job.ID,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	if err := d.Ack(jobCtx); err != nil {
		p.logger.Warn("Failed to ack job", map[string]interface{}{
			"job_id": d.Job.ID,
			"error":  err.Error(),
		})
	}
}
