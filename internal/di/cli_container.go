package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/logging"
)

// CLIFlags contains the global flags of the CLI application
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Reputation store overrides
	ReputationType string
	SQLitePath     string
	RedisURL       string
}

// BuildCLIContainer creates and configures a dependency injection container
// for the CLI application. Verdicts are printed, never sent to sinks.
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var cfg *config.Config
		if flags.ConfigFile != "" {
			loaded, err := config.New(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", loaded.ConfigFile()))
			cfg = loaded
		} else {
			cfg = config.NewFromViper(config.NewEmptyViper())
		}
		applyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideFactories(container); err != nil {
		return nil, err
	}

	// No sink for the CLI
	if err := container.Provide(func() core.ModerationSink { return nil }); err != nil {
		return nil, err
	}

	if err := provideScoring(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags overrides configuration with explicitly set flags
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	if flags.ReputationType != "" {
		v.Set("reputation.type", flags.ReputationType)
	}
	if flags.SQLitePath != "" {
		v.Set("reputation.sqlite_path", flags.SQLitePath)
	}
	if flags.RedisURL != "" {
		v.Set("reputation.redis_url", flags.RedisURL)
	}
}
