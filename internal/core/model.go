package core

import (
	"fmt"
)

// Event represents one message occurrence delivered by an event source
type Event struct {
	AuthorID     string `json:"author_id"`
	ChannelID    string `json:"channel_id"`
	CommunityID  string `json:"community_id"`
	Text         string `json:"text"`
	MentionCount int    `json:"mention_count"`
	// Timestamp is monotonic milliseconds
	Timestamp int64 `json:"timestamp"`
}

// Validate rejects events that must not enter the engine
func (e *Event) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}
	if e.AuthorID == "" {
		return fmt.Errorf("%w: missing author_id", ErrMalformedEvent)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}
	if e.MentionCount < 0 {
		return fmt.Errorf("%w: negative mention_count", ErrMalformedEvent)
	}
	return nil
}

// HistoryEntry is one processed event kept in an author's history
type HistoryEntry struct {
	Text      string  `json:"text"`
	Timestamp int64   `json:"ts"`
	Score     float64 `json:"score"`
}

// ChannelEntry is one event kept in a channel's activity window
type ChannelEntry struct {
	AuthorID  string `json:"author_id"`
	Timestamp int64  `json:"ts"`
}

// ReputationSnapshot is the external view of an author at decision time
type ReputationSnapshot struct {
	AccountAgeMs    int64
	ViolationCount  int
	ReputationScore float64
}

// Verdict is the engine's decision for a single event
type Verdict struct {
	ID           string   `json:"id"`
	IsSpam       bool     `json:"is_spam"`
	Confidence   float64  `json:"confidence"`
	Score        float64  `json:"score"`
	BaseScore    float64  `json:"base_score"`
	RiskModifier float64  `json:"risk_modifier"`
	Indicators   []string `json:"indicators"`
	Degraded     []string `json:"degraded,omitempty"`
	AuthorID     string   `json:"author_id"`
	ChannelID    string   `json:"channel_id,omitempty"`
	CommunityID  string   `json:"community_id,omitempty"`
	Timestamp    int64    `json:"timestamp"`
}

// GetTimestamp returns the entry's timestamp
func (h HistoryEntry) GetTimestamp() int64 { return h.Timestamp }

// WithTimestamp returns a copy of the entry carrying ts
func (h HistoryEntry) WithTimestamp(ts int64) HistoryEntry {
	h.Timestamp = ts
	return h
}

// GetTimestamp returns the entry's timestamp
func (c ChannelEntry) GetTimestamp() int64 { return c.Timestamp }

// WithTimestamp returns a copy of the entry carrying ts
func (c ChannelEntry) WithTimestamp(ts int64) ChannelEntry {
	c.Timestamp = ts
	return c
}
