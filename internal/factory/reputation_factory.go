package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/chat-spam-guard/internal/adapters/reputation"
	"github.com/mikey/chat-spam-guard/internal/config"
	"go.uber.org/zap"
)

// ReputationFactory creates reputation stores based on configuration
type ReputationFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReputationFactory creates a new reputation factory
func NewReputationFactory(cfg *config.Config, logger *zap.Logger) *ReputationFactory {
	return &ReputationFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReputationStore creates the configured store. Type "none" returns a
// nil store, which makes every author neutral.
func (f *ReputationFactory) CreateReputationStore() (reputation.Store, error) {
	rc, err := f.cfg.GetReputation()
	if err != nil {
		return nil, err
	}
	logger := f.logger.Named("reputation")

	switch rc.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return reputation.NewMemoryStore(logger, time.Now), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(rc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return reputation.NewSQLiteStore(rc.SQLitePath, logger, time.Now)
	case "mysql":
		return reputation.NewMySQLStore(rc.MySQLDSN, logger, time.Now)
	case "redis":
		return reputation.NewRedisStore(rc.RedisURL, logger, time.Now)
	default:
		return nil, fmt.Errorf("unsupported reputation store type: %s", rc.Type)
	}
}
