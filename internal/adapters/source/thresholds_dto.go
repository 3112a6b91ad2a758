package source

import (
	"fmt"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
)

// thresholdsBody is the wire form of core.Thresholds; windows are duration strings
type thresholdsBody struct {
	MaxMessages         int     `json:"max_messages"`
	TimeWindow          string  `json:"time_window"`
	MaxDuplicates       int     `json:"max_duplicates"`
	DuplicateWindow     string  `json:"duplicate_window"`
	DuplicateSimilarity float64 `json:"duplicate_similarity"`
	MaxMentions         int     `json:"max_mentions"`
	MaxEmoji            int     `json:"max_emoji"`
	MaxCapsRatio        float64 `json:"max_caps_ratio"`
	CapsMinLength       int     `json:"caps_min_length"`
	MaxLinks            int     `json:"max_links"`
	MaxLength           int     `json:"max_length"`
	RepeatedTokenRun    int     `json:"repeated_token_run"`
	MashRun             int     `json:"mash_run"`
	MaxWhitespaceRun    int     `json:"max_whitespace_run"`
	MaxCombiningRatio   float64 `json:"max_combining_ratio"`
	MaxInvisible        int     `json:"max_invisible"`
	ChannelWindow       string  `json:"channel_window"`
	ChannelMaxPerAuthor int     `json:"channel_max_per_author"`
	SpamScoreCutoff     float64 `json:"spam_score_cutoff"`
	MaxExternal         float64 `json:"max_external"`
}

func newThresholdsBody(t core.Thresholds) thresholdsBody {
	return thresholdsBody{
		MaxMessages:         t.MaxMessages,
		TimeWindow:          t.TimeWindow.String(),
		MaxDuplicates:       t.MaxDuplicates,
		DuplicateWindow:     t.DuplicateWindow.String(),
		DuplicateSimilarity: t.DuplicateSimilarity,
		MaxMentions:         t.MaxMentions,
		MaxEmoji:            t.MaxEmoji,
		MaxCapsRatio:        t.MaxCapsRatio,
		CapsMinLength:       t.CapsMinLength,
		MaxLinks:            t.MaxLinks,
		MaxLength:           t.MaxLength,
		RepeatedTokenRun:    t.RepeatedTokenRun,
		MashRun:             t.MashRun,
		MaxWhitespaceRun:    t.MaxWhitespaceRun,
		MaxCombiningRatio:   t.MaxCombiningRatio,
		MaxInvisible:        t.MaxInvisible,
		ChannelWindow:       t.ChannelWindow.String(),
		ChannelMaxPerAuthor: t.ChannelMaxPerAuthor,
		SpamScoreCutoff:     t.SpamScoreCutoff,
		MaxExternal:         t.MaxExternal,
	}
}

// thresholdsPatchBody is the wire form of core.ThresholdsPatch
type thresholdsPatchBody struct {
	MaxMessages         *int     `json:"max_messages"`
	TimeWindow          *string  `json:"time_window"`
	MaxDuplicates       *int     `json:"max_duplicates"`
	DuplicateWindow     *string  `json:"duplicate_window"`
	DuplicateSimilarity *float64 `json:"duplicate_similarity"`
	MaxMentions         *int     `json:"max_mentions"`
	MaxEmoji            *int     `json:"max_emoji"`
	MaxCapsRatio        *float64 `json:"max_caps_ratio"`
	CapsMinLength       *int     `json:"caps_min_length"`
	MaxLinks            *int     `json:"max_links"`
	MaxLength           *int     `json:"max_length"`
	RepeatedTokenRun    *int     `json:"repeated_token_run"`
	MashRun             *int     `json:"mash_run"`
	MaxWhitespaceRun    *int     `json:"max_whitespace_run"`
	MaxCombiningRatio   *float64 `json:"max_combining_ratio"`
	MaxInvisible        *int     `json:"max_invisible"`
	ChannelWindow       *string  `json:"channel_window"`
	ChannelMaxPerAuthor *int     `json:"channel_max_per_author"`
	SpamScoreCutoff     *float64 `json:"spam_score_cutoff"`
	MaxExternal         *float64 `json:"max_external"`
}

// toPatch parses the duration fields. A bad duration is reported as a
// configuration error on that field.
func (b thresholdsPatchBody) toPatch() (core.ThresholdsPatch, error) {
	p := core.ThresholdsPatch{
		MaxMessages:         b.MaxMessages,
		MaxDuplicates:       b.MaxDuplicates,
		DuplicateSimilarity: b.DuplicateSimilarity,
		MaxMentions:         b.MaxMentions,
		MaxEmoji:            b.MaxEmoji,
		MaxCapsRatio:        b.MaxCapsRatio,
		CapsMinLength:       b.CapsMinLength,
		MaxLinks:            b.MaxLinks,
		MaxLength:           b.MaxLength,
		RepeatedTokenRun:    b.RepeatedTokenRun,
		MashRun:             b.MashRun,
		MaxWhitespaceRun:    b.MaxWhitespaceRun,
		MaxCombiningRatio:   b.MaxCombiningRatio,
		MaxInvisible:        b.MaxInvisible,
		ChannelMaxPerAuthor: b.ChannelMaxPerAuthor,
		SpamScoreCutoff:     b.SpamScoreCutoff,
		MaxExternal:         b.MaxExternal,
	}

	durations := []struct {
		field string
		src   *string
		dst   **time.Duration
	}{
		{"time_window", b.TimeWindow, &p.TimeWindow},
		{"duplicate_window", b.DuplicateWindow, &p.DuplicateWindow},
		{"channel_window", b.ChannelWindow, &p.ChannelWindow},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return p, &core.ConfigurationError{Field: d.field, Reason: fmt.Sprintf("invalid duration %q", *d.src)}
		}
		*d.dst = &v
	}
	return p, nil
}
