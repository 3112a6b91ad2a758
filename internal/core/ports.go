package core

import (
	"context"
)

// ReputationStore defines the interface for the external author reputation service
type ReputationStore interface {
	// Lookup returns the author's current reputation facts
	Lookup(ctx context.Context, authorID string) (*ReputationSnapshot, error)

	// AdjustScore adds delta to the author's reputation score
	AdjustScore(ctx context.Context, authorID string, delta float64) error
}

// ModerationSink receives verdicts for enforcement and audit
type ModerationSink interface {
	// Publish delivers a verdict
	Publish(ctx context.Context, verdict *Verdict) error

	// Close flushes pending deliveries and releases resources
	Close() error
}

// CheckpointStore persists opaque per-key blobs grouped by namespace
type CheckpointStore interface {
	// Save replaces the whole namespace with blobs
	Save(ctx context.Context, namespace string, blobs map[string][]byte) error

	// Load returns every blob of a namespace, or ErrNoCheckpoint
	Load(ctx context.Context, namespace string) (map[string][]byte, error)

	// Close releases the underlying connection
	Close() error
}

// Signal is a pluggable external scoring heuristic. Score returns a value in [0,1];
// the engine caps the sum of all signals.
type Signal interface {
	Name() string
	Score(ctx context.Context, event *Event) (float64, error)
}
