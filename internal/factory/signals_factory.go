package factory

import (
	"github.com/mikey/chat-spam-guard/internal/config"
	"github.com/mikey/chat-spam-guard/internal/signals"
	"go.uber.org/zap"
)

// SignalsFactory creates the external signal registry based on configuration
type SignalsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSignalsFactory creates a new signals factory
func NewSignalsFactory(cfg *config.Config, logger *zap.Logger) *SignalsFactory {
	return &SignalsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRegistry registers the keyword density signal when any keywords are
// configured inline or in a keyword file
func (f *SignalsFactory) CreateRegistry() (*signals.Registry, error) {
	sc := f.cfg.GetSignals()
	registry := signals.NewRegistry()

	keywords := make([]signals.Keyword, 0, len(sc.Keywords))
	for _, phrase := range sc.Keywords {
		keywords = append(keywords, signals.Keyword{Phrase: phrase})
	}
	if sc.KeywordsFile != "" {
		loaded, err := signals.LoadKeywords(sc.KeywordsFile)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, loaded...)
	}
	if len(keywords) == 0 {
		return registry, nil
	}

	sig := signals.NewKeywordSignal(keywords, sc.KeywordWeight)
	if err := registry.Register(sig); err != nil {
		return nil, err
	}
	f.logger.Info("Registered keyword signal", zap.Int("phrases", len(sig.Phrases())))
	return registry, nil
}
