// Package dispatch runs post-response work (notification and auto-reply
// emails) outside the request lifecycle.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/common/observability"
)

var ErrQueueClosed = errors.New("dispatch queue is shut down")

// TaskFunc is one unit of fire-and-forget work. A returned error is logged
// and counted; the task is never retried.
type TaskFunc func(ctx context.Context) error

// Queue starts every task on its own goroutine and bounds how many run at
// once. Enqueue never blocks the caller.
type Queue struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  logger.Logger
	obs     *observability.Observability

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(cfg config.DispatchConfig, log logger.Logger, obs *observability.Observability) *Queue {
	maxActive := cfg.MaxActive
	if maxActive <= 0 {
		maxActive = 1
	}
	if obs == nil {
		obs = observability.NewNoop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		sem:     semaphore.NewWeighted(int64(maxActive)),
		timeout: config.GetDuration(cfg.TaskTimeout),
		logger:  log.WithFields(map[string]interface{}{"component": "dispatch"}),
		obs:     obs,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Enqueue schedules fn under name. It returns ErrQueueClosed after Shutdown.
func (q *Queue) Enqueue(name string, fn TaskFunc) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("task dropped, queue closed", map[string]interface{}{"task": name})
		return ErrQueueClosed
	}

	q.wg.Add(1)
	go q.run(name, fn)
	return nil
}

func (q *Queue) run(name string, fn TaskFunc) {
	defer q.wg.Done()

	if err := q.sem.Acquire(q.baseCtx, 1); err != nil {
		q.logger.Warn("task abandoned before start", map[string]interface{}{"task": name})
		q.obs.RecordTask(context.Background(), name, observability.StatusFailed, 0)
		return
	}
	defer q.sem.Release(1)

	metrics.DispatchTasksActive.Inc()
	defer metrics.DispatchTasksActive.Dec()

	ctx := q.baseCtx
	var cancel context.CancelFunc
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, fn)
	duration := time.Since(start)

	fields := map[string]interface{}{
		"task":       name,
		"durationMs": duration.Milliseconds(),
	}

	switch {
	case err == nil:
		q.obs.RecordTask(ctx, name, observability.StatusSucceeded, duration)
		q.logger.Debug("task completed", fields)
	case errors.Is(err, context.DeadlineExceeded):
		fields["error"] = err
		q.obs.RecordTask(context.Background(), name, observability.StatusTimedOut, duration)
		q.logger.Error("task timed out", fields)
	default:
		fields["error"] = err
		q.obs.RecordTask(context.Background(), name, observability.StatusFailed, duration)
		q.logger.Error("task failed", fields)
	}
}

func safeCall(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every task enqueued so far has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Shutdown stops accepting tasks and waits for in-flight ones. When ctx
// expires first, running tasks are cancelled and ctx.Err() is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
