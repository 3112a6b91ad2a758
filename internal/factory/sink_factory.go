package factory

import (
	"fmt"

	"github.com/mikey/chat-spam-guard/internal/adapters/sink"
	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// SinkFactory creates the verdict sink chain based on configuration
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSink builds every configured sink behind its own async buffer and
// fans verdicts out to all of them
func (f *SinkFactory) CreateSink() (core.ModerationSink, error) {
	sc, err := f.cfg.GetSink()
	if err != nil {
		return nil, err
	}
	logger := f.logger.Named("sink")

	asyncOpts := []sink.AsyncOption{
		sink.WithBufferSize(sc.BufferSize),
		sink.WithDrainTimeout(sc.DrainTimeout),
	}
	if !sc.DropOnFull {
		asyncOpts = append(asyncOpts, sink.WithBlockOnFull())
	}

	var sinks []core.ModerationSink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	for _, name := range sc.Types {
		var inner core.ModerationSink
		switch name {
		case "log":
			inner = sink.NewLogSink(logger)
		case "webhook":
			if sc.WebhookURL == "" {
				closeAll()
				return nil, fmt.Errorf("webhook sink requires sink.webhook_url")
			}
			inner = sink.NewWebhookSink(sc.WebhookURL, logger,
				sink.WithTimeout(sc.WebhookTimeout),
				sink.WithRetries(sc.WebhookRetries))
		case "redis":
			rs, err := sink.NewRedisSink(sc.RedisURL, sc.RedisStream, sc.RedisMaxLen)
			if err != nil {
				closeAll()
				return nil, err
			}
			inner = rs
		default:
			closeAll()
			return nil, fmt.Errorf("unsupported sink type: %s", name)
		}
		sinks = append(sinks, sink.NewAsync(name, inner, logger, asyncOpts...))
		logger.Info("Verdict sink enabled", zap.String("sink", name))
	}

	var out core.ModerationSink = sink.NewMulti(sinks...)
	if sc.OnlySpam {
		out = sink.NewSpamOnly(out)
	}
	return out, nil
}
