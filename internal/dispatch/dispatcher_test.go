package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingEvaluator struct {
	mu      sync.Mutex
	seen    []string
	release chan struct{}
}

func (c *countingEvaluator) Evaluate(ctx context.Context, e *core.Event) (*core.Verdict, error) {
	if c.release != nil {
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, e.AuthorID)
	return &core.Verdict{AuthorID: e.AuthorID}, nil
}

func TestDispatcherEvaluatesQueuedEventsOnStop(t *testing.T) {
	assert := assert.New(t)
	eval := &countingEvaluator{}
	d := NewDispatcher(eval, 4, 100, zap.NewNop())

	for i := 0; i < 50; i++ {
		assert.NoError(d.Submit(&core.Event{AuthorID: "a", Timestamp: int64(i + 1)}))
	}
	d.Stop()
	assert.Len(eval.seen, 50)

	assert.ErrorIs(d.Submit(&core.Event{AuthorID: "a", Timestamp: 1}), ErrStopped)
	d.Stop()
}

func TestDispatcherRejectsWhenFull(t *testing.T) {
	assert := assert.New(t)
	eval := &countingEvaluator{release: make(chan struct{})}
	d := NewDispatcher(eval, 1, 2, zap.NewNop())

	// the worker blocks on the first event, two more fill the queue
	var errs []error
	for i := 0; i < 10; i++ {
		errs = append(errs, d.Submit(&core.Event{AuthorID: "a", Timestamp: int64(i + 1)}))
	}
	assert.Contains(errs, ErrQueueFull)

	close(eval.release)
	d.Stop()
}

func TestDispatcherRejectsMalformed(t *testing.T) {
	d := NewDispatcher(&countingEvaluator{}, 1, 1, zap.NewNop())
	defer d.Stop()

	assert.ErrorIs(t, d.Submit(&core.Event{Timestamp: 1}), core.ErrMalformedEvent)
}
