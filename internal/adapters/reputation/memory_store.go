package reputation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.ReputationStore
type MemoryStore struct {
	records map[string]Record
	mu      sync.RWMutex
	logger  *zap.Logger
	now     Clock
}

// NewMemoryStore creates a new in-memory reputation store
func NewMemoryStore(logger *zap.Logger, now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		records: make(map[string]Record),
		logger:  logger,
		now:     now,
	}
}

// Put stores or replaces a record
func (s *MemoryStore) Put(_ context.Context, r Record) error {
	if r.AuthorID == "" {
		return fmt.Errorf("%w: missing author_id", core.ErrMalformedEvent)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.AuthorID] = r
	return nil
}

// Lookup implements core.ReputationStore
func (s *MemoryStore) Lookup(ctx context.Context, authorID string) (*core.ReputationSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrReputationUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[authorID]
	if !ok {
		return nil, core.ErrUnknownAuthor
	}
	return r.Snapshot(s.now()), nil
}

// AdjustScore implements core.ReputationStore
func (s *MemoryStore) AdjustScore(_ context.Context, authorID string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[authorID]
	if !ok {
		return core.ErrUnknownAuthor
	}
	r.Score += delta
	s.records[authorID] = r

	s.logger.Debug("Adjusted reputation score",
		zap.String("author_id", authorID),
		zap.Float64("delta", delta),
		zap.Float64("score", r.Score))
	return nil
}

// Len returns the number of stored authors
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close implements io.Closer
func (s *MemoryStore) Close() error {
	return nil
}
