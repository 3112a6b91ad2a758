package reputation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeStore struct {
	snap     *core.ReputationSnapshot
	err      error
	delay    time.Duration
	adjusted map[string]float64
}

func (f *fakeStore) Lookup(ctx context.Context, authorID string) (*core.ReputationSnapshot, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.snap, f.err
}

func (f *fakeStore) AdjustScore(ctx context.Context, authorID string, delta float64) error {
	if f.err != nil {
		return f.err
	}
	if f.adjusted == nil {
		f.adjusted = make(map[string]float64)
	}
	f.adjusted[authorID] += delta
	return nil
}

const dayMs = int64(24 * time.Hour / time.Millisecond)

func TestModifier(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(1.0, Modifier(core.ReputationSnapshot{AccountAgeMs: 30 * dayMs}), 1e-9)
	assert.InDelta(1.5, Modifier(core.ReputationSnapshot{AccountAgeMs: dayMs / 2}), 1e-9)
	assert.InDelta(1.2, Modifier(core.ReputationSnapshot{AccountAgeMs: 3 * dayMs}), 1e-9)
	assert.InDelta(1.95, Modifier(core.ReputationSnapshot{AccountAgeMs: 1000, ViolationCount: 1}), 1e-9)
	assert.InDelta(1.5*1.3*1.4, Modifier(core.ReputationSnapshot{AccountAgeMs: 0, ViolationCount: 2, ReputationScore: -1}), 1e-9)
	assert.InDelta(1.4, Modifier(core.ReputationSnapshot{AccountAgeMs: 30 * dayMs, ReputationScore: -0.1}), 1e-9)
}

func TestAssessNeverBelowOne(t *testing.T) {
	assert := assert.New(t)

	for _, snap := range []core.ReputationSnapshot{
		{AccountAgeMs: 365 * dayMs, ReputationScore: 100},
		{AccountAgeMs: 0},
		{AccountAgeMs: 8 * dayMs, ViolationCount: 4, ReputationScore: -3},
	} {
		snap := snap
		a := NewAdapter(&fakeStore{snap: &snap}, 0, 0, zap.NewNop())
		assert.GreaterOrEqual(a.Assess(context.Background(), "x").Modifier, 1.0)
	}
}

func TestAssessFailsOpen(t *testing.T) {
	assert := assert.New(t)

	unknown := NewAdapter(&fakeStore{err: core.ErrUnknownAuthor}, 0, 0, zap.NewNop())
	res := unknown.Assess(context.Background(), "x")
	assert.Equal(1.0, res.Modifier)
	assert.False(res.Degraded)

	down := NewAdapter(&fakeStore{err: core.ErrReputationUnavailable}, 0, 0, zap.NewNop())
	res = down.Assess(context.Background(), "x")
	assert.Equal(1.0, res.Modifier)
	assert.True(res.Degraded)

	young := &core.ReputationSnapshot{AccountAgeMs: 0}
	slow := NewAdapter(&fakeStore{snap: young, delay: time.Second}, 10*time.Millisecond, 0, zap.NewNop())
	start := time.Now()
	res = slow.Assess(context.Background(), "x")
	assert.Less(time.Since(start), 500*time.Millisecond)
	assert.Equal(1.0, res.Modifier)
	assert.True(res.Degraded)

	none := NewAdapter(nil, 0, 0, zap.NewNop())
	res = none.Assess(context.Background(), "x")
	assert.Equal(1.0, res.Modifier)
	assert.False(res.Degraded)
}

func TestReportFalsePositive(t *testing.T) {
	assert := assert.New(t)

	store := &fakeStore{}
	a := NewAdapter(store, 0, 0.5, zap.NewNop())
	assert.NoError(a.ReportFalsePositive(context.Background(), "alice"))
	assert.NoError(a.ReportFalsePositive(context.Background(), "alice"))
	assert.InDelta(1.0, store.adjusted["alice"], 1e-9)

	broken := NewAdapter(&fakeStore{err: core.ErrReputationUnavailable}, 0, 0, zap.NewNop())
	err := broken.ReportFalsePositive(context.Background(), "alice")
	assert.True(errors.Is(err, core.ErrReputationUnavailable))
}
