package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	repstore "github.com/mikey/chat-spam-guard/internal/adapters/reputation"
	"github.com/mikey/chat-spam-guard/internal/allowlist"
	"github.com/mikey/chat-spam-guard/internal/checkpoint"
	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/dispatch"
	"github.com/mikey/chat-spam-guard/internal/engine"
	"github.com/mikey/chat-spam-guard/internal/eviction"
	"github.com/mikey/chat-spam-guard/internal/factory"
	"github.com/mikey/chat-spam-guard/internal/heuristics"
	"github.com/mikey/chat-spam-guard/internal/history"
	"github.com/mikey/chat-spam-guard/internal/logging"
	"github.com/mikey/chat-spam-guard/internal/ports"
	"github.com/mikey/chat-spam-guard/internal/reputation"
	"github.com/mikey/chat-spam-guard/internal/signals"
	"github.com/mikey/chat-spam-guard/internal/tracker"
	"github.com/mikey/chat-spam-guard/internal/utils"
)

// Service is everything the long-running binary needs to start and stop
type Service struct {
	dig.In

	Config          *config.Config
	Logger          *zap.Logger
	Engine          *engine.Engine
	Dispatcher      *dispatch.Dispatcher
	Scheduler       *eviction.Scheduler
	Checkpoints     *checkpoint.Manager
	CheckpointStore core.CheckpointStore
	ReputationStore repstore.Store
	Sink            core.ModerationSink
	Sources         []ports.EventSource
	Watcher         *config.ThresholdsWatcher
}

// BuildContainer creates and configures a dependency injection container
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.New(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideFactories(container); err != nil {
		return nil, err
	}

	// Register verdict sink
	if err := container.Provide(func(f *factory.SinkFactory) (core.ModerationSink, error) {
		return f.CreateSink()
	}); err != nil {
		return nil, err
	}

	if err := provideScoring(container); err != nil {
		return nil, err
	}

	// Register dispatcher
	if err := container.Provide(func(cfg *config.Config, e *engine.Engine, logger *zap.Logger) *dispatch.Dispatcher {
		ec := cfg.GetEngine()
		return dispatch.NewDispatcher(e, ec.Workers, ec.QueueDepth, logger.Named("dispatch"))
	}); err != nil {
		return nil, err
	}

	// Register eviction scheduler
	if err := container.Provide(func(
		cfg *config.Config,
		authors *history.Store[core.HistoryEntry],
		channels *history.Store[core.ChannelEntry],
		logger *zap.Logger,
	) (*eviction.Scheduler, error) {
		hc, err := cfg.GetHistory()
		if err != nil {
			return nil, err
		}
		// sources may send any monotonic millisecond clock
		clock := eviction.NewEventClock(func() int64 {
			return max(authors.Newest(), channels.Newest())
		}, eviction.WallClock)
		return eviction.NewScheduler(authors, channels, eviction.Config{
			AuthorRetention:  hc.Retention,
			ChannelRetention: hc.ChannelRetention,
			AuthorSweep:      hc.AuthorSweep,
			ChannelSweep:     hc.ChannelSweep,
		}, clock.Now, logger.Named("eviction")), nil
	}); err != nil {
		return nil, err
	}

	// Register checkpoint store and manager; both are nil when disabled
	if err := container.Provide(func(f *factory.CheckpointFactory) (core.CheckpointStore, error) {
		return f.CreateCheckpointStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		f *factory.CheckpointFactory,
		store core.CheckpointStore,
		authors *history.Store[core.HistoryEntry],
		channels *history.Store[core.ChannelEntry],
		logger *zap.Logger,
	) (*checkpoint.Manager, error) {
		if store == nil {
			return nil, nil
		}
		interval, err := f.CheckpointInterval()
		if err != nil {
			return nil, err
		}
		return checkpoint.NewManager(store, authors, channels, interval, logger.Named("checkpoint")), nil
	}); err != nil {
		return nil, err
	}

	// Register event sources
	if err := container.Provide(func(f *factory.SourceFactory, e *engine.Engine, d *dispatch.Dispatcher) ([]ports.EventSource, error) {
		return f.CreateEventSources(e, d)
	}); err != nil {
		return nil, err
	}

	// Register thresholds watcher
	if err := container.Provide(func(cfg *config.Config, store *core.ThresholdStore, logger *zap.Logger) *config.ThresholdsWatcher {
		return config.NewThresholdsWatcher(cfg.ConfigFile(), store, logger.Named("config"))
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func provideFactories(container *dig.Container) error {
	for _, ctor := range []interface{}{
		factory.NewReputationFactory,
		factory.NewCheckpointFactory,
		factory.NewSinkFactory,
		factory.NewSignalsFactory,
		factory.NewSourceFactory,
		factory.NewTextProcessorFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	return container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	})
}

// provideScoring registers the engine and its collaborators. The container
// must already provide the config, logger, factories and a sink.
func provideScoring(container *dig.Container) error {
	// Register thresholds
	if err := container.Provide(func(cfg *config.Config, authors *history.Store[core.HistoryEntry]) (*core.ThresholdStore, error) {
		t, err := cfg.GetThresholds()
		if err != nil {
			return nil, err
		}
		return core.NewBoundedThresholdStore(t, authors.Capacity())
	}); err != nil {
		return err
	}

	// Register history stores
	if err := container.Provide(func(cfg *config.Config) (*history.Store[core.HistoryEntry], error) {
		hc, err := cfg.GetHistory()
		if err != nil {
			return nil, err
		}
		return history.NewStore[core.HistoryEntry](hc.Capacity), nil
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) (*history.Store[core.ChannelEntry], error) {
		hc, err := cfg.GetHistory()
		if err != nil {
			return nil, err
		}
		return history.NewStore[core.ChannelEntry](hc.Capacity), nil
	}); err != nil {
		return err
	}

	// Register reputation store and adapter
	if err := container.Provide(func(f *factory.ReputationFactory) (repstore.Store, error) {
		return f.CreateReputationStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, store repstore.Store, logger *zap.Logger) (*reputation.Adapter, error) {
		rc, err := cfg.GetReputation()
		if err != nil {
			return nil, err
		}
		var rs core.ReputationStore
		if store != nil {
			rs = store
		}
		return reputation.NewAdapter(rs, rc.Timeout, rc.FalsePositiveNudge, logger.Named("reputation")), nil
	}); err != nil {
		return err
	}

	// Register standalone tracker for offline flood queries
	if err := container.Provide(tracker.New); err != nil {
		return err
	}

	// Register heuristics, signals and allowlist
	if err := container.Provide(func() *heuristics.Evaluator {
		return heuristics.NewEvaluator()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.SignalsFactory) (*signals.Registry, error) {
		return f.CreateRegistry()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *allowlist.Checker {
		ac := cfg.GetAllowlist()
		if len(ac.Authors) > 0 || len(ac.Communities) > 0 {
			logger.Info("Loaded allowlist",
				zap.Strings("authors", ac.Authors),
				zap.Strings("communities", ac.Communities))
		}
		return allowlist.NewChecker(ac.Authors, ac.Communities, logger.Named("allowlist"))
	}); err != nil {
		return err
	}

	// Register scoring engine
	return container.Provide(func(
		thresholds *core.ThresholdStore,
		authors *history.Store[core.HistoryEntry],
		channels *history.Store[core.ChannelEntry],
		evaluator *heuristics.Evaluator,
		rep *reputation.Adapter,
		registry *signals.Registry,
		allow *allowlist.Checker,
		sink core.ModerationSink,
		logger *zap.Logger,
	) *engine.Engine {
		return engine.NewEngine(thresholds, authors, channels, evaluator, rep, registry, allow, sink, logger.Named("engine"))
	})
}
