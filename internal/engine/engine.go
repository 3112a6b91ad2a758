package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/chat-spam-guard/internal/allowlist"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/heuristics"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"github.com/mikey/chat-spam-guard/internal/reputation"
	"github.com/mikey/chat-spam-guard/internal/signals"
	"github.com/mikey/chat-spam-guard/internal/tracker"
	"go.uber.org/zap"
)

// Weights added to the base score by each triggered check
const (
	WeightFrequency = 0.4
	WeightDuplicate = 0.3
	WeightPattern   = 0.3
	WeightMention   = 0.2
	WeightEmoji     = 0.1
	WeightCaps      = 0.1
	WeightLink      = 0.2
	WeightLength    = 0.1
	WeightChannel   = 0.2
)

// AllowlistedIndicator marks verdicts that skipped scoring
const AllowlistedIndicator = "allowlisted"

// Engine fuses every signal into one verdict per event. Evaluate is safe for
// concurrent use; events for the same author or channel are serialized by the
// history stores' per-key locks.
//
// Evaluate is not idempotent: every scored event is appended to the author's
// history, so replaying the same event changes later verdicts.
type Engine struct {
	thresholds *core.ThresholdStore
	authors    *history.Store[core.HistoryEntry]
	channels   *history.Store[core.ChannelEntry]
	heuristics *heuristics.Evaluator
	reputation *reputation.Adapter
	signals    *signals.Registry
	allowlist  *allowlist.Checker
	sink       core.ModerationSink
	logger     *zap.Logger

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// NewEngine creates a new scoring engine. signals, allowlist and sink may be nil.
func NewEngine(
	thresholds *core.ThresholdStore,
	authors *history.Store[core.HistoryEntry],
	channels *history.Store[core.ChannelEntry],
	evaluator *heuristics.Evaluator,
	rep *reputation.Adapter,
	registry *signals.Registry,
	allow *allowlist.Checker,
	sink core.ModerationSink,
	logger *zap.Logger,
) *Engine {
	if registry == nil {
		registry = signals.NewRegistry()
	}
	return &Engine{
		thresholds: thresholds,
		authors:    authors,
		channels:   channels,
		heuristics: evaluator,
		reputation: rep,
		signals:    registry,
		allowlist:  allow,
		sink:       sink,
		logger:     logger,
	}
}

// admit registers an in-flight decision unless the engine is closing
func (e *Engine) admit() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	e.inflight.Add(1)
	return true
}

// Evaluate scores one event and records it in history. It fails only for
// malformed events or after Close.
func (e *Engine) Evaluate(ctx context.Context, event *core.Event) (*core.Verdict, error) {
	if err := event.Validate(); err != nil {
		metrics.EventsRejected.WithLabelValues("malformed").Inc()
		return nil, err
	}
	if !e.admit() {
		metrics.EventsRejected.WithLabelValues("closed").Inc()
		return nil, core.ErrEngineClosed
	}
	defer e.inflight.Done()

	start := time.Now()
	t := e.thresholds.Load()

	if e.allowlist.IsAllowed(event.AuthorID, event.CommunityID) {
		return e.newVerdict(event, 0, 0, 1.0, []string{AllowlistedIndicator}, nil), nil
	}

	report := e.heuristics.Evaluate(event, t)

	// external I/O stays outside the key locks
	assessment := e.reputation.Assess(ctx, event.AuthorID)
	external, externalIndicators, degraded := e.externalScore(ctx, event, t)
	if assessment.Degraded {
		degraded = append([]string{reputation.DegradedIndicator}, degraded...)
	}

	var (
		base       float64
		indicators []string
	)
	dropped := e.authors.Update(event.AuthorID, func(tx *history.Tx[core.HistoryEntry]) {
		now := event.Timestamp
		freq := tracker.Frequency(tx, now, t)
		dup := tracker.Duplicate(tx, event.Text, now, t)

		var flood tracker.Result
		if event.ChannelID != "" {
			// lock order is always author then channel
			e.channels.Update(event.ChannelID, func(ch *history.Tx[core.ChannelEntry]) {
				flood = tracker.ChannelFlood(ch, event.AuthorID, now, t)
			})
		}

		base, indicators = fuse(t, freq, dup, report, flood)
		tx.Append(core.HistoryEntry{Text: event.Text, Timestamp: now, Score: base})
	})
	if dropped > 0 {
		metrics.CapacityDrops.Add(float64(dropped))
	}

	final := base*assessment.Modifier + external
	indicators = append(indicators, externalIndicators...)
	indicators = append(indicators, degraded...)

	verdict := e.newVerdict(event, final, base, assessment.Modifier, indicators, degraded)
	verdict.IsSpam = final >= t.SpamScoreCutoff

	e.publish(ctx, verdict)
	e.observe(verdict, time.Since(start))
	return verdict, nil
}

// fuse adds the weight of every triggered check in reporting order
func fuse(t core.Thresholds, freq, dup tracker.Result, report heuristics.Report, flood tracker.Result) (float64, []string) {
	var (
		score      float64
		indicators []string
	)
	add := func(w float64, indicator string) {
		score += w
		indicators = append(indicators, indicator)
	}

	if freq.Flagged {
		add(WeightFrequency, fmt.Sprintf("frequency: %d messages in %s", freq.Count, t.TimeWindow))
	}
	if dup.Flagged {
		add(WeightDuplicate, fmt.Sprintf("duplicate: %d similar messages in %s", dup.Count, t.DuplicateWindow))
	}
	if hits := report.ByCategory(heuristics.CategoryPattern); len(hits) > 0 {
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = h.Name
		}
		add(WeightPattern, "pattern: "+strings.Join(names, ", "))
	}
	if hits := report.ByCategory(heuristics.CategoryMention); len(hits) > 0 {
		add(WeightMention, fmt.Sprintf("mention burst: %.0f mentions", hits[0].Metric))
	}
	if hits := report.ByCategory(heuristics.CategoryEmoji); len(hits) > 0 {
		add(WeightEmoji, fmt.Sprintf("emoji burst: %.0f emoji", hits[0].Metric))
	}
	if hits := report.ByCategory(heuristics.CategoryCaps); len(hits) > 0 {
		add(WeightCaps, fmt.Sprintf("caps: %.0f%% uppercase", hits[0].Metric*100))
	}
	if hits := report.ByCategory(heuristics.CategoryLink); len(hits) > 0 {
		add(WeightLink, fmt.Sprintf("links: %.0f links", hits[0].Metric))
	}
	if hits := report.ByCategory(heuristics.CategoryLength); len(hits) > 0 {
		add(WeightLength, fmt.Sprintf("length: %.0f characters", hits[0].Metric))
	}
	if flood.Flagged {
		add(WeightChannel, fmt.Sprintf("channel flood: %d messages in %s", flood.Count, t.ChannelWindow))
	}
	return score, indicators
}

// externalScore sums the registered signals, capped at MaxExternal. Failing
// signals contribute nothing and are reported as degraded.
func (e *Engine) externalScore(ctx context.Context, event *core.Event, t core.Thresholds) (float64, []string, []string) {
	var (
		total      float64
		indicators []string
		degraded   []string
	)
	for _, s := range e.signals.List() {
		score, err := s.Score(ctx, event)
		if err != nil {
			metrics.DegradedSignals.WithLabelValues(s.Name()).Inc()
			e.logger.Warn("External signal failed, failing open",
				zap.String("signal", s.Name()),
				zap.String("author_id", event.AuthorID),
				zap.Error(err))
			degraded = append(degraded, s.Name()+" signal unavailable")
			continue
		}
		if score <= 0 {
			continue
		}
		total += score
		indicators = append(indicators, fmt.Sprintf("external: %s %.2f", s.Name(), score))
	}
	if total > t.MaxExternal {
		total = t.MaxExternal
	}
	return total, indicators, degraded
}

func (e *Engine) newVerdict(event *core.Event, final, base, modifier float64, indicators, degraded []string) *core.Verdict {
	confidence := final
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	if indicators == nil {
		indicators = []string{}
	}
	return &core.Verdict{
		ID:           uuid.NewString(),
		Confidence:   confidence,
		Score:        final,
		BaseScore:    base,
		RiskModifier: modifier,
		Indicators:   indicators,
		Degraded:     degraded,
		AuthorID:     event.AuthorID,
		ChannelID:    event.ChannelID,
		CommunityID:  event.CommunityID,
		Timestamp:    event.Timestamp,
	}
}

// publish mirrors the verdict to the sink. Sink failures never fail the decision.
func (e *Engine) publish(ctx context.Context, verdict *core.Verdict) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(context.WithoutCancel(ctx), verdict); err != nil {
		metrics.SinkFailures.WithLabelValues("engine").Inc()
		e.logger.Error("Failed to publish verdict",
			zap.String("verdict_id", verdict.ID),
			zap.String("author_id", verdict.AuthorID),
			zap.Error(err))
	}
}

func (e *Engine) observe(v *core.Verdict, elapsed time.Duration) {
	metrics.EventsEvaluated.Inc()
	metrics.DecisionDuration.Observe(float64(elapsed.Microseconds()) / 1000)
	outcome := "ham"
	if v.IsSpam {
		outcome = "spam"
	}
	metrics.Verdicts.WithLabelValues(outcome).Inc()
	for _, ind := range v.Indicators {
		label, _, _ := strings.Cut(ind, ":")
		metrics.Indicators.WithLabelValues(label).Inc()
	}

	fields := []zap.Field{
		zap.String("author_id", v.AuthorID),
		zap.String("channel_id", v.ChannelID),
		zap.Float64("score", v.Score),
		zap.Float64("confidence", v.Confidence),
		zap.Strings("indicators", v.Indicators),
		zap.Duration("elapsed", elapsed),
	}
	if v.IsSpam {
		e.logger.Info("Spam detected", fields...)
		return
	}
	e.logger.Debug("Event evaluated", fields...)
}

// Thresholds returns the thresholds currently in effect
func (e *Engine) Thresholds() core.Thresholds {
	return e.thresholds.Load()
}

// UpdateThresholds validates and applies a partial update. On error the
// previous thresholds stay in effect and the error names the failing field.
func (e *Engine) UpdateThresholds(patch core.ThresholdsPatch) (core.Thresholds, error) {
	applied, err := e.thresholds.Update(patch)
	if err != nil {
		e.logger.Warn("Rejected thresholds update", zap.Error(err))
		return applied, err
	}
	e.logger.Info("Thresholds updated", zap.Any("thresholds", applied))
	return applied, nil
}

// ReportFalsePositive nudges the author's reputation. Past verdicts are unchanged.
func (e *Engine) ReportFalsePositive(ctx context.Context, authorID string) error {
	if authorID == "" {
		return fmt.Errorf("%w: missing author_id", core.ErrMalformedEvent)
	}
	return e.reputation.ReportFalsePositive(ctx, authorID)
}

// Close refuses new events and waits for in-flight decisions to finish
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.inflight.Wait()
	e.logger.Info("Engine stopped")
}
