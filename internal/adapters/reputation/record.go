package reputation

import (
	"context"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
)

// Record is the stored reputation of one author
type Record struct {
	AuthorID       string    `json:"author_id" yaml:"author_id"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	ViolationCount int       `json:"violation_count" yaml:"violation_count"`
	Score          float64   `json:"score" yaml:"score"`
}

// Snapshot derives the decision-time view of the record. Account age is
// computed at lookup so stored records never go stale.
func (r Record) Snapshot(now time.Time) *core.ReputationSnapshot {
	age := now.Sub(r.CreatedAt).Milliseconds()
	if age < 0 {
		age = 0
	}
	return &core.ReputationSnapshot{
		AccountAgeMs:    age,
		ViolationCount:  r.ViolationCount,
		ReputationScore: r.Score,
	}
}

// Clock returns the current time
type Clock func() time.Time

// Store is a reputation store that can also be seeded and closed
type Store interface {
	core.ReputationStore
	Put(ctx context.Context, r Record) error
	Close() error
}
