package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/chat-spam-guard/internal/di"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "go.uber.org/automaxprocs"
)

var configFile = flag.String("config", "", "Path to config file (default: search standard locations)")

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(svc di.Service) error {
	logger := svc.Logger
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm start from the last checkpoint
	if svc.Checkpoints != nil {
		if err := svc.Checkpoints.Restore(ctx); err != nil {
			logger.Error("Failed to restore checkpoint, starting cold", zap.Error(err))
		}
	}

	if path := svc.Config.ConfigFile(); path != "" {
		stopWatch, err := svc.Watcher.Watch()
		if err != nil {
			logger.Warn("Thresholds hot reload disabled", zap.Error(err))
		} else {
			defer stopWatch()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Scheduler.Run(gctx) })
	if svc.Checkpoints != nil {
		g.Go(func() error { return svc.Checkpoints.Run(gctx) })
	}
	for _, src := range svc.Sources {
		g.Go(func() error {
			if err := src.Start(gctx); err != nil {
				return fmt.Errorf("%s source: %w", src.Name(), err)
			}
			return nil
		})
	}
	logger.Info("Spam guard started", zap.Int("sources", len(svc.Sources)))

	<-gctx.Done()
	logger.Info("Shutting down...")

	// Sources first so nothing new is admitted, then drain queued events
	for _, src := range svc.Sources {
		if err := src.Stop(); err != nil {
			logger.Error("Failed to stop source", zap.String("source", src.Name()), zap.Error(err))
		}
	}
	svc.Dispatcher.Stop()
	svc.Engine.Close()

	runErr := g.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	if svc.Checkpoints != nil {
		if err := svc.Checkpoints.Save(context.Background()); err != nil {
			logger.Error("Failed to save final checkpoint", zap.Error(err))
		}
	}

	closeAll(logger, svc.Sink, svc.CheckpointStore, svc.ReputationStore)

	logger.Info("Shutdown complete")
	return runErr
}

func closeAll(logger *zap.Logger, closers ...interface{ Close() error }) {
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Error("Failed to close resource", zap.Error(err))
		}
	}
}
