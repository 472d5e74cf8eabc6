// Package pipeline runs admitted claim tasks to a terminal state: a bounded
// worker pool consumes a queue with at-least-once delivery, and a per-task
// runner walks extraction, validation and downstream-record generation.
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the dispatch queue cannot take more tasks.
var ErrQueueFull = errors.New("dispatch queue is full")

// ErrStopped is returned when a task arrives after the dispatcher shut down.
var ErrStopped = errors.New("dispatcher is stopped")

// Dispatcher schedules admitted tasks onto a bounded worker pool. A task
// runs to completion on a single worker without preemption; tasks have no
// ordering guarantee between each other.
type Dispatcher struct {
	runner  *Runner
	workers int

	// mu guards queue against a send racing the close in Stop.
	mu     sync.RWMutex
	queue  chan uuid.UUID
	closed bool

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(runner *Runner, workers, queueDepth int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		runner:  runner,
		queue:   make(chan uuid.UUID, queueDepth),
		workers: workers,
	}
}

// Start launches the worker pool. Workers exit when the queue is closed or
// the context is cancelled; in-flight tasks always run to a terminal state.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.work(ctx, i)
		}
		zap.S().Named("dispatcher").Infof("started %d pipeline workers", d.workers)
	})
}

// Enqueue hands an admitted task to the pool without blocking the caller.
// After Stop it fails with ErrStopped instead of accepting the task.
func (d *Dispatcher) Enqueue(taskID uuid.UUID) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrStopped
	}
	select {
	case d.queue <- taskID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Requeue redelivers an already-admitted task, used for crash recovery.
// Delivery is at-least-once: the runner is idempotent for re-execution.
func (d *Dispatcher) Requeue(taskID uuid.UUID) error {
	return d.Enqueue(taskID)
}

// Stop closes the queue and waits for the workers to drain it.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
	zap.S().Named("dispatcher").Info("pipeline workers stopped")
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	logger := zap.S().Named("dispatcher").With("worker", id)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("worker shutting down: %s", ctx.Err())
			return
		case taskID, ok := <-d.queue:
			if !ok {
				return
			}
			logger.Debugw("task picked up", "task_id", taskID)
			d.runner.Process(ctx, taskID)
		}
	}
}
