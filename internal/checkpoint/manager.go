package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/mikey/chat-spam-guard/internal/metrics"
	"go.uber.org/zap"
)

// Namespaces under which the stores are saved
const (
	AuthorsNamespace  = "authors"
	ChannelsNamespace = "channels"
)

// DefaultInterval is how often history is checkpointed
const DefaultInterval = 5 * time.Minute

// Manager saves and restores history through a checkpoint store
type Manager struct {
	store    core.CheckpointStore
	authors  *history.Store[core.HistoryEntry]
	channels *history.Store[core.ChannelEntry]
	interval time.Duration
	logger   *zap.Logger
}

// NewManager creates a checkpoint manager
func NewManager(
	store core.CheckpointStore,
	authors *history.Store[core.HistoryEntry],
	channels *history.Store[core.ChannelEntry],
	interval time.Duration,
	logger *zap.Logger,
) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Manager{
		store:    store,
		authors:  authors,
		channels: channels,
		interval: interval,
		logger:   logger,
	}
}

// Save writes both stores
func (m *Manager) Save(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.CheckpointDuration.WithLabelValues("save").Observe(float64(time.Since(start).Milliseconds()))
	}()

	authors, err := Encode(m.authors.Snapshot())
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, AuthorsNamespace, authors); err != nil {
		return fmt.Errorf("failed to save author history: %w", err)
	}

	channels, err := Encode(m.channels.Snapshot())
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, ChannelsNamespace, channels); err != nil {
		return fmt.Errorf("failed to save channel activity: %w", err)
	}

	m.logger.Debug("Checkpoint saved",
		zap.Int("authors", len(authors)),
		zap.Int("channels", len(channels)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Restore loads both stores. A missing checkpoint is a cold start, not an error.
func (m *Manager) Restore(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.CheckpointDuration.WithLabelValues("restore").Observe(float64(time.Since(start).Milliseconds()))
	}()

	authors, err := restore(ctx, m.store, AuthorsNamespace, m.authors)
	if err != nil {
		return err
	}
	channels, err := restore(ctx, m.store, ChannelsNamespace, m.channels)
	if err != nil {
		return err
	}

	if authors == 0 && channels == 0 {
		m.logger.Info("No checkpoint found, starting cold")
		return nil
	}
	m.logger.Info("Checkpoint restored",
		zap.Int("authors", authors),
		zap.Int("channels", channels))
	return nil
}

func restore[T history.Stamped[T]](ctx context.Context, store core.CheckpointStore, namespace string, into *history.Store[T]) (int, error) {
	blobs, err := store.Load(ctx, namespace)
	if errors.Is(err, core.ErrNoCheckpoint) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load %s checkpoint: %w", namespace, err)
	}
	data, err := Decode[T](blobs)
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s checkpoint: %w", namespace, err)
	}
	into.Restore(data)
	return len(data), nil
}

// Run saves on every interval until ctx is cancelled. The final save belongs
// to the caller, after the engine has drained.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Save(ctx); err != nil {
				m.logger.Error("Failed to save checkpoint", zap.Error(err))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
