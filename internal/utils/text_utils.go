package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// DefaultMaxTextBytes caps event text accepted from sources
const DefaultMaxTextBytes = 16 * 1024

// TextProcessor cleans event text and identifiers arriving from sources
type TextProcessor struct {
	logger       *zap.Logger
	maxTextBytes int
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger, maxTextBytes int) *TextProcessor {
	if maxTextBytes <= 0 {
		maxTextBytes = DefaultMaxTextBytes
	}
	return &TextProcessor{
		logger:       logger,
		maxTextBytes: maxTextBytes,
	}
}

// TruncateText cuts text to at most maxSize bytes without splitting a rune
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated
}

// SanitizeUTF8 drops invalid UTF-8 bytes
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")
	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, tp.maxTextBytes))
}

// NormalizeEvent trims identifiers and cleans the text of an event in place
func (tp *TextProcessor) NormalizeEvent(event *core.Event) {
	event.AuthorID = strings.TrimSpace(event.AuthorID)
	event.ChannelID = strings.TrimSpace(event.ChannelID)
	event.CommunityID = strings.TrimSpace(event.CommunityID)
	event.Text = tp.ProcessText(event.Text)
}
