package factory

import (
	"fmt"

	"github.com/mikey/chat-spam-guard/internal/adapters/source"
	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/ports"
	"github.com/mikey/chat-spam-guard/internal/utils"
	"go.uber.org/zap"
)

// SourceFactory creates event sources based on configuration
type SourceFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	processor *utils.TextProcessor
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger, processor *utils.TextProcessor) *SourceFactory {
	return &SourceFactory{
		cfg:       cfg,
		logger:    logger,
		processor: processor,
	}
}

// CreateEventSources creates every enabled long-running source
func (f *SourceFactory) CreateEventSources(scorer ports.Scorer, admitter ports.Admitter) ([]ports.EventSource, error) {
	sc := f.cfg.GetSource()
	var sources []ports.EventSource

	if sc.ServerEnabled {
		sources = append(sources, source.NewHTTPAPI(
			scorer,
			admitter,
			f.processor,
			f.logger.Named("http"),
			sc.ListenAddress,
		))
	}
	if sc.WebsocketEnabled {
		if sc.WebsocketURL == "" {
			return nil, fmt.Errorf("websocket source requires source.websocket_url")
		}
		sources = append(sources, source.NewWebsocketSource(
			sc.WebsocketURL,
			admitter,
			f.processor,
			f.logger.Named("websocket"),
		))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no event source enabled")
	}
	return sources, nil
}
