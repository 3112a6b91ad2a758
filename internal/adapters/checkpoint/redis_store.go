package checkpoint

import (
	"context"
	"fmt"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "checkpoint/"

// RedisStore keeps one hash per namespace, one field per key
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to redisURL
func NewRedisStore(redisURL string, logger *zap.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: rdb, logger: logger}, nil
}

// Save replaces the namespace atomically
func (s *RedisStore) Save(ctx context.Context, namespace string, blobs map[string][]byte) error {
	key := redisKeyPrefix + namespace
	values := make([]interface{}, 0, 2*len(blobs))
	for k, blob := range blobs {
		values = append(values, k, blob)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		pipe.HSet(ctx, key, values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	s.logger.Debug("Saved checkpoint", zap.String("namespace", namespace), zap.Int("keys", len(blobs)))
	return nil
}

// Load returns core.ErrNoCheckpoint when the namespace has never been saved
func (s *RedisStore) Load(ctx context.Context, namespace string) (map[string][]byte, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+namespace).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrNoCheckpoint
	}
	blobs := make(map[string][]byte, len(fields))
	for k, v := range fields {
		blobs[k] = []byte(v)
	}
	return blobs, nil
}

// Close closes the redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
