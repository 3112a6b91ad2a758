package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/chat-spam-guard/internal/adapters/checkpoint"
	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// CheckpointFactory creates checkpoint stores based on configuration
type CheckpointFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCheckpointFactory creates a new checkpoint factory
func NewCheckpointFactory(cfg *config.Config, logger *zap.Logger) *CheckpointFactory {
	return &CheckpointFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCheckpointStore creates the configured store, or nil when
// checkpointing is disabled
func (f *CheckpointFactory) CreateCheckpointStore() (core.CheckpointStore, error) {
	cc, err := f.cfg.GetCheckpoint()
	if err != nil {
		return nil, err
	}
	logger := f.logger.Named("checkpoint")

	switch cc.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return checkpoint.NewSQLiteStore(cc.SQLitePath, logger)
	case "mysql":
		return checkpoint.NewMySQLStore(cc.MySQLDSN, logger)
	case "redis":
		return checkpoint.NewRedisStore(cc.RedisURL, logger)
	default:
		return nil, fmt.Errorf("unsupported checkpoint store type: %s", cc.Type)
	}
}

// CheckpointInterval returns how often history is saved
func (f *CheckpointFactory) CheckpointInterval() (time.Duration, error) {
	cc, err := f.cfg.GetCheckpoint()
	if err != nil {
		return 0, err
	}
	return cc.Interval, nil
}
