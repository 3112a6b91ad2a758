package sink

import (
	"context"

	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// LogSink writes verdicts to the structured log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs every verdict it receives
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish implements core.ModerationSink
func (s *LogSink) Publish(_ context.Context, v *core.Verdict) error {
	s.logger.Info("Moderation verdict",
		zap.String("verdict_id", v.ID),
		zap.Bool("is_spam", v.IsSpam),
		zap.String("author_id", v.AuthorID),
		zap.String("channel_id", v.ChannelID),
		zap.String("community_id", v.CommunityID),
		zap.Float64("score", v.Score),
		zap.Float64("confidence", v.Confidence),
		zap.Strings("indicators", v.Indicators),
		zap.Int64("timestamp", v.Timestamp))
	return nil
}

// Close implements core.ModerationSink
func (s *LogSink) Close() error {
	return nil
}
