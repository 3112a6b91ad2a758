package ports

import (
	"context"

	"github.com/mikey/chat-spam-guard/internal/core"
)

// EventSource defines the interface for components that feed events into the engine
type EventSource interface {
	// Name identifies the source in logs and metrics
	Name() string

	// Start runs the source until ctx is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop stops the source
	Stop() error
}

// Scorer is the synchronous decision surface exposed to sources
type Scorer interface {
	// Evaluate scores an event and records it in history
	Evaluate(ctx context.Context, event *core.Event) (*core.Verdict, error)

	// Thresholds returns the thresholds currently in effect
	Thresholds() core.Thresholds

	// UpdateThresholds applies a partial update
	UpdateThresholds(patch core.ThresholdsPatch) (core.Thresholds, error)

	// ReportFalsePositive nudges an author's reputation
	ReportFalsePositive(ctx context.Context, authorID string) error
}

// Admitter queues events for asynchronous evaluation
type Admitter interface {
	// Submit enqueues an event without blocking
	Submit(event *core.Event) error
}
