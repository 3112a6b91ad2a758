package eviction

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"go.uber.org/zap"
)

// Config controls how long history is retained and how often it is swept
type Config struct {
	AuthorRetention  time.Duration
	ChannelRetention time.Duration
	AuthorSweep      time.Duration
	ChannelSweep     time.Duration
}

// DefaultConfig returns the stock retention and sweep periods
func DefaultConfig() Config {
	return Config{
		AuthorRetention:  time.Hour,
		ChannelRetention: 10 * time.Second,
		AuthorSweep:      15 * time.Minute,
		ChannelSweep:     10 * time.Minute,
	}
}

// Clock returns the current time in the same milliseconds as event timestamps
type Clock func() int64

// WallClock reads unix milliseconds
func WallClock() int64 {
	return time.Now().UnixMilli()
}

// EventClock follows event time instead of the host clock. It reports the
// newest event timestamp seen, advanced by the wall time elapsed since that
// timestamp stopped changing, so idle history still ages out.
type EventClock struct {
	newest func() int64
	wall   Clock

	mu       sync.Mutex
	lastSeen int64
	seenAt   int64
}

// NewEventClock creates a clock over newest, which returns the largest event
// timestamp observed so far or zero when none has been
func NewEventClock(newest func() int64, wall Clock) *EventClock {
	if wall == nil {
		wall = WallClock
	}
	return &EventClock{newest: newest, wall: wall}
}

// Now returns the current event time in milliseconds
func (c *EventClock) Now() int64 {
	n := c.newest()
	c.mu.Lock()
	defer c.mu.Unlock()
	if n != c.lastSeen {
		c.lastSeen = n
		c.seenAt = c.wall()
		return n
	}
	if n == 0 {
		return 0
	}
	return n + c.wall() - c.seenAt
}

// Scheduler periodically drops expired history. It is the only component
// that removes keys from the stores.
type Scheduler struct {
	authors  *history.Store[core.HistoryEntry]
	channels *history.Store[core.ChannelEntry]
	cfg      Config
	clock    Clock
	logger   *zap.Logger
}

// NewScheduler creates an eviction scheduler. Zero config fields take their defaults.
func NewScheduler(
	authors *history.Store[core.HistoryEntry],
	channels *history.Store[core.ChannelEntry],
	cfg Config,
	clock Clock,
	logger *zap.Logger,
) *Scheduler {
	def := DefaultConfig()
	if cfg.AuthorRetention <= 0 {
		cfg.AuthorRetention = def.AuthorRetention
	}
	if cfg.ChannelRetention <= 0 {
		cfg.ChannelRetention = def.ChannelRetention
	}
	if cfg.AuthorSweep <= 0 {
		cfg.AuthorSweep = def.AuthorSweep
	}
	if cfg.ChannelSweep <= 0 {
		cfg.ChannelSweep = def.ChannelSweep
	}
	if clock == nil {
		clock = WallClock
	}
	return &Scheduler{
		authors:  authors,
		channels: channels,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

// SweepAuthors removes author history older than the retention window
func (s *Scheduler) SweepAuthors() (entries, keys int) {
	entries, keys = s.authors.EvictExpired(s.clock() - s.cfg.AuthorRetention.Milliseconds())
	s.record("authors", entries, keys, s.authors.Keys())
	return entries, keys
}

// SweepChannels removes channel activity older than the retention window
func (s *Scheduler) SweepChannels() (entries, keys int) {
	entries, keys = s.channels.EvictExpired(s.clock() - s.cfg.ChannelRetention.Milliseconds())
	s.record("channels", entries, keys, s.channels.Keys())
	return entries, keys
}

func (s *Scheduler) record(store string, entries, keys, active int) {
	metrics.EvictedEntries.WithLabelValues(store).Add(float64(entries))
	metrics.ActiveKeys.WithLabelValues(store).Set(float64(active))
	s.logger.Debug("Evicted expired history",
		zap.String("store", store),
		zap.Int("entries", entries),
		zap.Int("keys", keys),
		zap.Int("active_keys", active))
}

// Run sweeps on both periods until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	authorTicker := time.NewTicker(s.cfg.AuthorSweep)
	defer authorTicker.Stop()
	channelTicker := time.NewTicker(s.cfg.ChannelSweep)
	defer channelTicker.Stop()

	s.logger.Info("Eviction scheduler started",
		zap.Duration("author_sweep", s.cfg.AuthorSweep),
		zap.Duration("author_retention", s.cfg.AuthorRetention),
		zap.Duration("channel_sweep", s.cfg.ChannelSweep),
		zap.Duration("channel_retention", s.cfg.ChannelRetention))

	for {
		select {
		case <-authorTicker.C:
			s.SweepAuthors()
		case <-channelTicker.C:
			s.SweepChannels()
		case <-ctx.Done():
			s.logger.Info("Eviction scheduler stopped")
			return nil
		}
	}
}
