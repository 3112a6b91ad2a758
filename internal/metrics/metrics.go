package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spam_guard_events_evaluated_total",
		Help: "Total number of events that reached a verdict.",
	})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spam_guard_events_rejected_total",
		Help: "Total number of events refused before scoring, labelled by reason.",
	}, []string{"reason"})

	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spam_guard_verdicts_total",
		Help: "Total number of verdicts, labelled by outcome.",
	}, []string{"outcome"})

	Indicators = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spam_guard_indicators_total",
		Help: "Total number of triggered checks, labelled by check name.",
	}, []string{"check"})

	DegradedSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spam_guard_degraded_signals_total",
		Help: "Total number of signals that failed open, labelled by signal.",
	}, []string{"signal"})

	DecisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spam_guard_decision_duration_ms",
		Help:    "Evaluate latency in milliseconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})

	ActiveKeys = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spam_guard_active_keys",
		Help: "Number of authors or channels currently holding history.",
	}, []string{"store"})

	EvictedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spam_guard_evicted_entries_total",
		Help: "Total number of history entries removed by eviction sweeps.",
	}, []string{"store"})

	CapacityDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spam_guard_capacity_drops_total",
		Help: "Total number of author history entries dropped because the ring was full.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spam_guard_queue_utilization_ratio",
		Help: "Current dispatcher queue utilization (0-1).",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spam_guard_events_dropped_total",
		Help: "Total number of events rejected due to a full dispatcher queue.",
	})

	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spam_guard_sink_failures_total",
		Help: "Total number of verdicts a moderation sink failed to accept, labelled by sink.",
	}, []string{"sink"})

	CheckpointDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spam_guard_checkpoint_duration_ms",
		Help:    "Checkpoint save and restore latency in milliseconds.",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	}, []string{"op"})
)
