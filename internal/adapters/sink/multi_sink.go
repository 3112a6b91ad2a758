package sink

import (
	"context"
	"errors"

	"github.com/mikey/chat-spam-guard/internal/core"
)

// Multi fans verdicts out to several sinks. A failing sink does not stop
// delivery to the others.
type Multi struct {
	sinks []core.ModerationSink
}

// NewMulti creates a Multi over sinks
func NewMulti(sinks ...core.ModerationSink) *Multi {
	return &Multi{sinks: sinks}
}

// Publish implements core.ModerationSink
func (m *Multi) Publish(ctx context.Context, v *core.Verdict) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements core.ModerationSink
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SpamOnly forwards only spam verdicts
type SpamOnly struct {
	inner core.ModerationSink
}

// NewSpamOnly wraps inner
func NewSpamOnly(inner core.ModerationSink) *SpamOnly {
	return &SpamOnly{inner: inner}
}

// Publish implements core.ModerationSink
func (s *SpamOnly) Publish(ctx context.Context, v *core.Verdict) error {
	if !v.IsSpam {
		return nil
	}
	return s.inner.Publish(ctx, v)
}

// Close implements core.ModerationSink
func (s *SpamOnly) Close() error {
	return s.inner.Close()
}
