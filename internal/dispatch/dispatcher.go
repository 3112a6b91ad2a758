package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when admission would exceed the bounded queue
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrStopped is returned after Stop
	ErrStopped = errors.New("dispatcher stopped")
)

const (
	DefaultWorkers    = 16
	DefaultQueueDepth = 10000
)

// Evaluator is the part of the engine the dispatcher drives
type Evaluator interface {
	Evaluate(ctx context.Context, event *core.Event) (*core.Verdict, error)
}

// Dispatcher admits events from streaming sources without blocking them and
// evaluates them on a fixed pool of workers.
type Dispatcher struct {
	engine Evaluator
	pool   *workerPool[*core.Event]
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher starts workers goroutines behind a queue of queueDepth events
func NewDispatcher(engine Evaluator, workers, queueDepth int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	d := &Dispatcher{
		engine: engine,
		logger: logger,
	}
	d.pool = newWorkerPool(context.Background(), workers, queueDepth, d.process)
	return d
}

func (d *Dispatcher) process(ctx context.Context, event *core.Event) {
	metrics.QueueUtilization.Set(d.Utilization())
	if _, err := d.engine.Evaluate(ctx, event); err != nil {
		d.logger.Warn("Failed to evaluate event",
			zap.String("author_id", event.AuthorID),
			zap.Error(err))
	}
}

// Submit enqueues an event for asynchronous evaluation. Malformed events are
// rejected here so sources see the error.
func (d *Dispatcher) Submit(event *core.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}
	if !d.pool.submit(event) {
		metrics.EventsDropped.Inc()
		return ErrQueueFull
	}
	return nil
}

// Utilization returns the fraction of the queue in use
func (d *Dispatcher) Utilization() float64 {
	return float64(d.pool.queueLen()) / float64(d.pool.queueCap())
}

// Stop refuses new events and waits for queued ones to be evaluated
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.pool.drain()
	metrics.QueueUtilization.Set(0)
	d.logger.Info("Dispatcher drained")
}
