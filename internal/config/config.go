package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. An explicit path wins over the
// default search locations.
func New(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/chat-spam-guard/")
		v.AddConfigPath("$HOME/.chat-spam-guard")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	return newViper()
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("SPAM_GUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Thresholds
	v.SetDefault("thresholds.max_messages", 5)
	v.SetDefault("thresholds.time_window", "5s")
	v.SetDefault("thresholds.max_duplicates", 3)
	v.SetDefault("thresholds.duplicate_window", "30s")
	v.SetDefault("thresholds.duplicate_similarity", 0.8)
	v.SetDefault("thresholds.max_mentions", 5)
	v.SetDefault("thresholds.max_emoji", 10)
	v.SetDefault("thresholds.max_caps_ratio", 0.7)
	v.SetDefault("thresholds.caps_min_length", 10)
	v.SetDefault("thresholds.max_links", 3)
	v.SetDefault("thresholds.max_length", 2000)
	v.SetDefault("thresholds.repeated_token_run", 4)
	v.SetDefault("thresholds.mash_run", 6)
	v.SetDefault("thresholds.max_whitespace_run", 10)
	v.SetDefault("thresholds.max_combining_ratio", 0.3)
	v.SetDefault("thresholds.max_invisible", 3)
	v.SetDefault("thresholds.channel_window", "10s")
	v.SetDefault("thresholds.channel_max_per_author", 8)
	v.SetDefault("thresholds.spam_score_cutoff", 0.7)
	v.SetDefault("thresholds.max_external", 0.3)

	// History
	v.SetDefault("history.capacity", 100)
	v.SetDefault("history.retention", "1h")
	v.SetDefault("history.channel_retention", "10s")
	v.SetDefault("history.author_sweep", "15m")
	v.SetDefault("history.channel_sweep", "10m")

	// Reputation
	v.SetDefault("reputation.type", "none")
	v.SetDefault("reputation.timeout", "50ms")
	v.SetDefault("reputation.false_positive_nudge", 1.0)
	v.SetDefault("reputation.sqlite_path", "/data/reputation.db")
	v.SetDefault("reputation.mysql_dsn", "user:password@tcp(localhost:3306)/spam_guard")
	v.SetDefault("reputation.redis_url", "redis://localhost:6379/0")

	// Checkpoint
	v.SetDefault("checkpoint.type", "none")
	v.SetDefault("checkpoint.interval", "5m")
	v.SetDefault("checkpoint.sqlite_path", "/data/checkpoint.db")
	v.SetDefault("checkpoint.mysql_dsn", "user:password@tcp(localhost:3306)/spam_guard")
	v.SetDefault("checkpoint.redis_url", "redis://localhost:6379/0")

	// Sinks
	v.SetDefault("sink.types", []string{"log"})
	v.SetDefault("sink.only_spam", true)
	v.SetDefault("sink.buffer_size", 1024)
	v.SetDefault("sink.drop_on_full", true)
	v.SetDefault("sink.drain_timeout", "5s")
	v.SetDefault("sink.webhook_url", "")
	v.SetDefault("sink.webhook_timeout", "10s")
	v.SetDefault("sink.webhook_retries", 3)
	v.SetDefault("sink.redis_url", "redis://localhost:6379/0")
	v.SetDefault("sink.redis_stream", "spam-guard:verdicts")
	v.SetDefault("sink.redis_max_len", 100000)

	// Sources
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("source.websocket_enabled", false)
	v.SetDefault("source.websocket_url", "")
	v.SetDefault("source.max_text_bytes", 16384)

	// Engine
	v.SetDefault("engine.workers", 16)
	v.SetDefault("engine.queue_depth", 10000)

	// Signals
	v.SetDefault("signals.keywords", []string{})
	v.SetDefault("signals.keywords_file", "")
	v.SetDefault("signals.keyword_weight", 0.1)

	// Allowlist
	v.SetDefault("allowlist.authors", []string{})
	v.SetDefault("allowlist.communities", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// ConfigFile returns the path of the file that was read, if any
func (c *Config) ConfigFile() string {
	return c.v.ConfigFileUsed()
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
