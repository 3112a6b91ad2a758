package sink

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// AsyncOption configures an Async wrapper
type AsyncOption func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 1024.
func WithBufferSize(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.bufSize = n
		}
	}
}

// WithBlockOnFull makes Publish wait for buffer space instead of dropping
func WithBlockOnFull() AsyncOption {
	return func(a *Async) { a.dropOnFull = false }
}

// WithDrainTimeout bounds how long Close waits for buffered verdicts
func WithDrainTimeout(d time.Duration) AsyncOption {
	return func(a *Async) { a.drainTimeout = d }
}

// Async decouples the decision path from sink delivery via a buffered
// channel drained by one goroutine. Delivery errors are logged, never returned.
type Async struct {
	name         string
	inner        core.ModerationSink
	ch           chan *core.Verdict
	done         chan struct{}
	logger       *zap.Logger
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewAsync wraps inner. By default a full buffer drops the verdict.
func NewAsync(name string, inner core.ModerationSink, logger *zap.Logger, opts ...AsyncOption) *Async {
	a := &Async{
		name:         name,
		inner:        inner,
		logger:       logger,
		bufSize:      defaultBufferSize,
		dropOnFull:   true,
		drainTimeout: defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan *core.Verdict, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Publish queues the verdict and returns immediately
func (a *Async) Publish(_ context.Context, v *core.Verdict) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	if a.dropOnFull {
		select {
		case a.ch <- v:
		default:
			metrics.SinkFailures.WithLabelValues(a.name).Inc()
			a.logger.Warn("Sink buffer full, dropping verdict",
				zap.String("sink", a.name),
				zap.String("verdict_id", v.ID))
		}
		return nil
	}
	a.ch <- v
	return nil
}

// Close stops accepting verdicts, drains the buffer (bounded by the drain
// timeout) and closes the inner sink
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()

		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			a.logger.Warn("Sink drain timed out", zap.String("sink", a.name))
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for v := range a.ch {
		if err := a.inner.Publish(context.Background(), v); err != nil {
			metrics.SinkFailures.WithLabelValues(a.name).Inc()
			a.logger.Error("Failed to deliver verdict",
				zap.String("sink", a.name),
				zap.String("verdict_id", v.ID),
				zap.Error(err))
		}
	}
}
