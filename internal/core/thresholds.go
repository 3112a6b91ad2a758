package core

import (
	"sync/atomic"
	"time"
)

// Thresholds holds every tunable limit of the scoring engine
type Thresholds struct {
	// Frequency
	MaxMessages int           `json:"max_messages"`
	TimeWindow  time.Duration `json:"time_window"`

	// Duplicate content
	MaxDuplicates       int           `json:"max_duplicates"`
	DuplicateWindow     time.Duration `json:"duplicate_window"`
	DuplicateSimilarity float64       `json:"duplicate_similarity"`

	// Content heuristics
	MaxMentions       int     `json:"max_mentions"`
	MaxEmoji          int     `json:"max_emoji"`
	MaxCapsRatio      float64 `json:"max_caps_ratio"`
	CapsMinLength     int     `json:"caps_min_length"`
	MaxLinks          int     `json:"max_links"`
	MaxLength         int     `json:"max_length"`
	RepeatedTokenRun  int     `json:"repeated_token_run"`
	MashRun           int     `json:"mash_run"`
	MaxWhitespaceRun  int     `json:"max_whitespace_run"`
	MaxCombiningRatio float64 `json:"max_combining_ratio"`
	MaxInvisible      int     `json:"max_invisible"`

	// Channel flood
	ChannelWindow       time.Duration `json:"channel_window"`
	ChannelMaxPerAuthor int           `json:"channel_max_per_author"`

	// Fusion
	SpamScoreCutoff float64 `json:"spam_score_cutoff"`
	MaxExternal     float64 `json:"max_external"`
}

// DefaultThresholds returns the stock threshold set
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxMessages:         5,
		TimeWindow:          5 * time.Second,
		MaxDuplicates:       3,
		DuplicateWindow:     30 * time.Second,
		DuplicateSimilarity: 0.8,
		MaxMentions:         5,
		MaxEmoji:            10,
		MaxCapsRatio:        0.7,
		CapsMinLength:       10,
		MaxLinks:            3,
		MaxLength:           2000,
		RepeatedTokenRun:    4,
		MashRun:             6,
		MaxWhitespaceRun:    10,
		MaxCombiningRatio:   0.3,
		MaxInvisible:        3,
		ChannelWindow:       10 * time.Second,
		ChannelMaxPerAuthor: 8,
		SpamScoreCutoff:     0.7,
		MaxExternal:         0.3,
	}
}

// Validate returns a *ConfigurationError naming the first invalid field
func (t Thresholds) Validate() error {
	positiveInts := []struct {
		name string
		v    int
	}{
		{"max_messages", t.MaxMessages},
		{"max_duplicates", t.MaxDuplicates},
		{"max_mentions", t.MaxMentions},
		{"max_emoji", t.MaxEmoji},
		{"max_links", t.MaxLinks},
		{"max_length", t.MaxLength},
		{"repeated_token_run", t.RepeatedTokenRun},
		{"mash_run", t.MashRun},
		{"max_whitespace_run", t.MaxWhitespaceRun},
		{"max_invisible", t.MaxInvisible},
		{"channel_max_per_author", t.ChannelMaxPerAuthor},
	}
	for _, f := range positiveInts {
		if f.v <= 0 {
			return &ConfigurationError{Field: f.name, Reason: "must be positive"}
		}
	}
	if t.CapsMinLength < 0 {
		return &ConfigurationError{Field: "caps_min_length", Reason: "must not be negative"}
	}

	windows := []struct {
		name string
		v    time.Duration
	}{
		{"time_window", t.TimeWindow},
		{"duplicate_window", t.DuplicateWindow},
		{"channel_window", t.ChannelWindow},
	}
	for _, f := range windows {
		if f.v <= 0 {
			return &ConfigurationError{Field: f.name, Reason: "window must be positive"}
		}
	}

	ratios := []struct {
		name string
		v    float64
	}{
		{"duplicate_similarity", t.DuplicateSimilarity},
		{"max_caps_ratio", t.MaxCapsRatio},
		{"max_combining_ratio", t.MaxCombiningRatio},
		{"max_external", t.MaxExternal},
	}
	for _, f := range ratios {
		if f.v < 0 || f.v > 1 {
			return &ConfigurationError{Field: f.name, Reason: "must be within [0,1]"}
		}
	}
	if t.SpamScoreCutoff <= 0 {
		return &ConfigurationError{Field: "spam_score_cutoff", Reason: "must be positive"}
	}
	return nil
}

// ValidateCapacity rejects count limits that a history holding at most
// capacity entries per key could never reach
func (t Thresholds) ValidateCapacity(capacity int) error {
	if capacity <= 0 {
		return nil
	}
	// the in-flight event is counted on top of the stored history
	if t.MaxMessages > capacity {
		return &ConfigurationError{Field: "max_messages", Reason: "exceeds history capacity"}
	}
	if t.MaxDuplicates > capacity {
		return &ConfigurationError{Field: "max_duplicates", Reason: "exceeds history capacity"}
	}
	// channel counts include only stored entries
	if t.ChannelMaxPerAuthor >= capacity {
		return &ConfigurationError{Field: "channel_max_per_author", Reason: "exceeds history capacity"}
	}
	return nil
}

// ThresholdsPatch is a partial update; nil fields keep their current value
type ThresholdsPatch struct {
	MaxMessages         *int           `json:"max_messages,omitempty"`
	TimeWindow          *time.Duration `json:"time_window,omitempty"`
	MaxDuplicates       *int           `json:"max_duplicates,omitempty"`
	DuplicateWindow     *time.Duration `json:"duplicate_window,omitempty"`
	DuplicateSimilarity *float64       `json:"duplicate_similarity,omitempty"`
	MaxMentions         *int           `json:"max_mentions,omitempty"`
	MaxEmoji            *int           `json:"max_emoji,omitempty"`
	MaxCapsRatio        *float64       `json:"max_caps_ratio,omitempty"`
	CapsMinLength       *int           `json:"caps_min_length,omitempty"`
	MaxLinks            *int           `json:"max_links,omitempty"`
	MaxLength           *int           `json:"max_length,omitempty"`
	RepeatedTokenRun    *int           `json:"repeated_token_run,omitempty"`
	MashRun             *int           `json:"mash_run,omitempty"`
	MaxWhitespaceRun    *int           `json:"max_whitespace_run,omitempty"`
	MaxCombiningRatio   *float64       `json:"max_combining_ratio,omitempty"`
	MaxInvisible        *int           `json:"max_invisible,omitempty"`
	ChannelWindow       *time.Duration `json:"channel_window,omitempty"`
	ChannelMaxPerAuthor *int           `json:"channel_max_per_author,omitempty"`
	SpamScoreCutoff     *float64       `json:"spam_score_cutoff,omitempty"`
	MaxExternal         *float64       `json:"max_external,omitempty"`
}

// Apply returns a copy of t with the patch's non-nil fields applied
func (p ThresholdsPatch) Apply(t Thresholds) Thresholds {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *time.Duration) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&t.MaxMessages, p.MaxMessages)
	setDur(&t.TimeWindow, p.TimeWindow)
	setInt(&t.MaxDuplicates, p.MaxDuplicates)
	setDur(&t.DuplicateWindow, p.DuplicateWindow)
	setFloat(&t.DuplicateSimilarity, p.DuplicateSimilarity)
	setInt(&t.MaxMentions, p.MaxMentions)
	setInt(&t.MaxEmoji, p.MaxEmoji)
	setFloat(&t.MaxCapsRatio, p.MaxCapsRatio)
	setInt(&t.CapsMinLength, p.CapsMinLength)
	setInt(&t.MaxLinks, p.MaxLinks)
	setInt(&t.MaxLength, p.MaxLength)
	setInt(&t.RepeatedTokenRun, p.RepeatedTokenRun)
	setInt(&t.MashRun, p.MashRun)
	setInt(&t.MaxWhitespaceRun, p.MaxWhitespaceRun)
	setFloat(&t.MaxCombiningRatio, p.MaxCombiningRatio)
	setInt(&t.MaxInvisible, p.MaxInvisible)
	setDur(&t.ChannelWindow, p.ChannelWindow)
	setInt(&t.ChannelMaxPerAuthor, p.ChannelMaxPerAuthor)
	setFloat(&t.SpamScoreCutoff, p.SpamScoreCutoff)
	setFloat(&t.MaxExternal, p.MaxExternal)
	return t
}

// ThresholdStore holds the process-wide thresholds. Updates swap a whole
// immutable value so readers never observe a partially applied change.
type ThresholdStore struct {
	current  atomic.Pointer[Thresholds]
	capacity int
}

// NewThresholdStore creates a store seeded with t, which must be valid
func NewThresholdStore(t Thresholds) (*ThresholdStore, error) {
	return NewBoundedThresholdStore(t, 0)
}

// NewBoundedThresholdStore is NewThresholdStore for histories holding at most
// capacity entries per key. Every later update is checked against it too.
func NewBoundedThresholdStore(t Thresholds, capacity int) (*ThresholdStore, error) {
	s := &ThresholdStore{capacity: capacity}
	if err := s.validate(t); err != nil {
		return nil, err
	}
	s.current.Store(&t)
	return s, nil
}

func (s *ThresholdStore) validate(t Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return t.ValidateCapacity(s.capacity)
}

// Load returns the thresholds currently in effect
func (s *ThresholdStore) Load() Thresholds {
	return *s.current.Load()
}

// Update applies a partial change and returns the thresholds now in effect.
// On validation failure the previous set stays active.
func (s *ThresholdStore) Update(patch ThresholdsPatch) (Thresholds, error) {
	for {
		old := s.current.Load()
		next := patch.Apply(*old)
		if err := s.validate(next); err != nil {
			return *old, err
		}
		if s.current.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}

// Replace swaps in a complete threshold set
func (s *ThresholdStore) Replace(t Thresholds) error {
	if err := s.validate(t); err != nil {
		return err
	}
	s.current.Store(&t)
	return nil
}
