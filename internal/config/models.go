package config

import (
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
)

// HistoryConfig sizes the history stores and their eviction
type HistoryConfig struct {
	Capacity         int
	Retention        time.Duration
	ChannelRetention time.Duration
	AuthorSweep      time.Duration
	ChannelSweep     time.Duration
}

// ReputationConfig selects and configures the reputation store
type ReputationConfig struct {
	Type               string
	Timeout            time.Duration
	FalsePositiveNudge float64
	SQLitePath         string
	MySQLDSN           string
	RedisURL           string
}

// CheckpointConfig selects and configures the checkpoint store
type CheckpointConfig struct {
	Type       string
	Interval   time.Duration
	SQLitePath string
	MySQLDSN   string
	RedisURL   string
}

// SinkConfig configures verdict delivery
type SinkConfig struct {
	Types          []string
	OnlySpam       bool
	BufferSize     int
	DropOnFull     bool
	DrainTimeout   time.Duration
	WebhookURL     string
	WebhookTimeout time.Duration
	WebhookRetries int
	RedisURL       string
	RedisStream    string
	RedisMaxLen    int64
}

// SourceConfig configures the event sources
type SourceConfig struct {
	ServerEnabled    bool
	ListenAddress    string
	WebsocketEnabled bool
	WebsocketURL     string
	MaxTextBytes     int
}

// EngineConfig sizes the dispatcher
type EngineConfig struct {
	Workers    int
	QueueDepth int
}

// SignalsConfig configures the keyword density signal
type SignalsConfig struct {
	Keywords      []string
	KeywordsFile  string
	KeywordWeight float64
}

// AllowlistConfig lists authors and communities that bypass scoring
type AllowlistConfig struct {
	Authors     []string
	Communities []string
}

// durations parses a set of duration keys, stopping at the first bad one
type durations struct {
	c   *Config
	err error
}

func (d *durations) get(key string) time.Duration {
	if d.err != nil {
		return 0
	}
	v, err := d.c.GetDuration(key)
	if err != nil {
		d.err = err
	}
	return v
}

// GetThresholds returns the configured thresholds, validated
func (c *Config) GetThresholds() (core.Thresholds, error) {
	d := &durations{c: c}
	t := core.Thresholds{
		MaxMessages:         c.GetInt("thresholds.max_messages"),
		TimeWindow:          d.get("thresholds.time_window"),
		MaxDuplicates:       c.GetInt("thresholds.max_duplicates"),
		DuplicateWindow:     d.get("thresholds.duplicate_window"),
		DuplicateSimilarity: c.GetFloat64("thresholds.duplicate_similarity"),
		MaxMentions:         c.GetInt("thresholds.max_mentions"),
		MaxEmoji:            c.GetInt("thresholds.max_emoji"),
		MaxCapsRatio:        c.GetFloat64("thresholds.max_caps_ratio"),
		CapsMinLength:       c.GetInt("thresholds.caps_min_length"),
		MaxLinks:            c.GetInt("thresholds.max_links"),
		MaxLength:           c.GetInt("thresholds.max_length"),
		RepeatedTokenRun:    c.GetInt("thresholds.repeated_token_run"),
		MashRun:             c.GetInt("thresholds.mash_run"),
		MaxWhitespaceRun:    c.GetInt("thresholds.max_whitespace_run"),
		MaxCombiningRatio:   c.GetFloat64("thresholds.max_combining_ratio"),
		MaxInvisible:        c.GetInt("thresholds.max_invisible"),
		ChannelWindow:       d.get("thresholds.channel_window"),
		ChannelMaxPerAuthor: c.GetInt("thresholds.channel_max_per_author"),
		SpamScoreCutoff:     c.GetFloat64("thresholds.spam_score_cutoff"),
		MaxExternal:         c.GetFloat64("thresholds.max_external"),
	}
	if d.err != nil {
		return t, d.err
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// GetHistory returns the history configuration
func (c *Config) GetHistory() (HistoryConfig, error) {
	d := &durations{c: c}
	h := HistoryConfig{
		Capacity:         c.GetInt("history.capacity"),
		Retention:        d.get("history.retention"),
		ChannelRetention: d.get("history.channel_retention"),
		AuthorSweep:      d.get("history.author_sweep"),
		ChannelSweep:     d.get("history.channel_sweep"),
	}
	return h, d.err
}

// GetReputation returns the reputation store configuration
func (c *Config) GetReputation() (ReputationConfig, error) {
	timeout, err := c.GetDuration("reputation.timeout")
	if err != nil {
		return ReputationConfig{}, err
	}
	return ReputationConfig{
		Type:               c.GetString("reputation.type"),
		Timeout:            timeout,
		FalsePositiveNudge: c.GetFloat64("reputation.false_positive_nudge"),
		SQLitePath:         c.GetString("reputation.sqlite_path"),
		MySQLDSN:           c.GetString("reputation.mysql_dsn"),
		RedisURL:           c.GetString("reputation.redis_url"),
	}, nil
}

// GetCheckpoint returns the checkpoint store configuration
func (c *Config) GetCheckpoint() (CheckpointConfig, error) {
	interval, err := c.GetDuration("checkpoint.interval")
	if err != nil {
		return CheckpointConfig{}, err
	}
	return CheckpointConfig{
		Type:       c.GetString("checkpoint.type"),
		Interval:   interval,
		SQLitePath: c.GetString("checkpoint.sqlite_path"),
		MySQLDSN:   c.GetString("checkpoint.mysql_dsn"),
		RedisURL:   c.GetString("checkpoint.redis_url"),
	}, nil
}

// GetSink returns the verdict sink configuration
func (c *Config) GetSink() (SinkConfig, error) {
	d := &durations{c: c}
	s := SinkConfig{
		Types:          c.GetStringSlice("sink.types"),
		OnlySpam:       c.GetBool("sink.only_spam"),
		BufferSize:     c.GetInt("sink.buffer_size"),
		DropOnFull:     c.GetBool("sink.drop_on_full"),
		DrainTimeout:   d.get("sink.drain_timeout"),
		WebhookURL:     c.GetString("sink.webhook_url"),
		WebhookTimeout: d.get("sink.webhook_timeout"),
		WebhookRetries: c.GetInt("sink.webhook_retries"),
		RedisURL:       c.GetString("sink.redis_url"),
		RedisStream:    c.GetString("sink.redis_stream"),
		RedisMaxLen:    int64(c.GetInt("sink.redis_max_len")),
	}
	return s, d.err
}

// GetSource returns the event source configuration
func (c *Config) GetSource() SourceConfig {
	return SourceConfig{
		ServerEnabled:    c.GetBool("server.enabled"),
		ListenAddress:    c.GetString("server.listen_address"),
		WebsocketEnabled: c.GetBool("source.websocket_enabled"),
		WebsocketURL:     c.GetString("source.websocket_url"),
		MaxTextBytes:     c.GetInt("source.max_text_bytes"),
	}
}

// GetEngine returns the dispatcher sizing
func (c *Config) GetEngine() EngineConfig {
	return EngineConfig{
		Workers:    c.GetInt("engine.workers"),
		QueueDepth: c.GetInt("engine.queue_depth"),
	}
}

// GetSignals returns the keyword signal configuration
func (c *Config) GetSignals() SignalsConfig {
	return SignalsConfig{
		Keywords:      c.GetStringSlice("signals.keywords"),
		KeywordsFile:  c.GetString("signals.keywords_file"),
		KeywordWeight: c.GetFloat64("signals.keyword_weight"),
	}
}

// GetAllowlist returns the allowlisted authors and communities
func (c *Config) GetAllowlist() AllowlistConfig {
	return AllowlistConfig{
		Authors:     c.GetStringSlice("allowlist.authors"),
		Communities: c.GetStringSlice("allowlist.communities"),
	}
}
