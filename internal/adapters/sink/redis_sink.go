package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream verdicts are appended to
const DefaultStream = "spam-guard:verdicts"

// RedisSink appends verdicts to a redis stream for enforcement workers
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink connects to redisURL. maxLen caps the stream approximately; zero means uncapped.
func NewRedisSink(redisURL, stream string, maxLen int64) (*RedisSink, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisSinkWithClient(rdb, stream, maxLen), nil
}

// NewRedisSinkWithClient wraps an existing client
func NewRedisSinkWithClient(client *redis.Client, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

// Publish implements core.ModerationSink
func (s *RedisSink) Publish(ctx context.Context, v *core.Verdict) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis sink: marshal: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"id":         v.ID,
			"author_id":  v.AuthorID,
			"channel_id": v.ChannelID,
			"is_spam":    v.IsSpam,
			"score":      v.Score,
			"indicators": strings.Join(v.Indicators, "; "),
			"verdict":    payload,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis sink: %w", err)
	}
	return nil
}

// Close implements core.ModerationSink
func (s *RedisSink) Close() error {
	return s.client.Close()
}
