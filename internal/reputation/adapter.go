package reputation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"go.uber.org/zap"
)

const (
	day = 24 * time.Hour

	// DefaultTimeout bounds a single reputation lookup
	DefaultTimeout = 50 * time.Millisecond
	// DefaultNudge is the score added to an author on a false positive report
	DefaultNudge = 1.0

	// DegradedIndicator is appended to a verdict when the lookup failed
	DegradedIndicator = "reputation signal unavailable"
)

// Assessment is the reputation outcome for one decision
type Assessment struct {
	Modifier float64
	Snapshot *core.ReputationSnapshot
	// Degraded is set when the store failed or timed out and the modifier fell back to 1.0
	Degraded bool
}

// Adapter turns reputation lookups into a risk modifier. A nil store makes
// every author neutral.
type Adapter struct {
	store   core.ReputationStore
	timeout time.Duration
	nudge   float64
	logger  *zap.Logger
}

// NewAdapter creates a reputation adapter
func NewAdapter(store core.ReputationStore, timeout time.Duration, nudge float64, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if nudge <= 0 {
		nudge = DefaultNudge
	}
	return &Adapter{
		store:   store,
		timeout: timeout,
		nudge:   nudge,
		logger:  logger,
	}
}

// Modifier derives the multiplicative risk factor from a snapshot. The age
// factor picks the first matching bracket; violation and negative score
// factors multiply on top.
func Modifier(s core.ReputationSnapshot) float64 {
	m := 1.0
	age := time.Duration(s.AccountAgeMs) * time.Millisecond
	switch {
	case age < day:
		m *= 1.5
	case age < 7*day:
		m *= 1.2
	}
	if s.ViolationCount > 0 {
		m *= 1.3
	}
	if s.ReputationScore < 0 {
		m *= 1.4
	}
	return m
}

// Assess looks up authorID under the adapter timeout and never fails. Unknown
// authors are neutral; store errors and timeouts are neutral and degraded.
func (a *Adapter) Assess(ctx context.Context, authorID string) Assessment {
	if a.store == nil {
		return Assessment{Modifier: 1.0}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	snap, err := a.store.Lookup(ctx, authorID)
	switch {
	case err == nil && snap != nil:
		return Assessment{Modifier: Modifier(*snap), Snapshot: snap}
	case err == nil, errors.Is(err, core.ErrUnknownAuthor):
		return Assessment{Modifier: 1.0}
	}

	metrics.DegradedSignals.WithLabelValues("reputation").Inc()
	a.logger.Warn("Reputation lookup failed, failing open",
		zap.String("author_id", authorID),
		zap.Error(err))
	return Assessment{Modifier: 1.0, Degraded: true}
}

// ReportFalsePositive raises the author's reputation score. Past verdicts are not touched.
func (a *Adapter) ReportFalsePositive(ctx context.Context, authorID string) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.AdjustScore(ctx, authorID, a.nudge); err != nil {
		return fmt.Errorf("failed to adjust reputation for %s: %w", authorID, err)
	}
	a.logger.Info("Recorded false positive", zap.String("author_id", authorID), zap.Float64("delta", a.nudge))
	return nil
}
