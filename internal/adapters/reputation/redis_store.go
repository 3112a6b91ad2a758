package reputation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "reputation/"

// RedisStore keeps one hash per author
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
	now    Clock
}

// NewRedisStore connects to redisURL
func NewRedisStore(redisURL string, logger *zap.Logger, now Clock) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(rdb, logger, now), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, logger *zap.Logger, now Clock) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, logger: logger, now: now}
}

// Put stores or replaces a record
func (s *RedisStore) Put(ctx context.Context, r Record) error {
	if r.AuthorID == "" {
		return fmt.Errorf("%w: missing author_id", core.ErrMalformedEvent)
	}
	err := s.client.HSet(ctx, redisKeyPrefix+r.AuthorID,
		"created_at", r.CreatedAt.UnixMilli(),
		"violations", r.ViolationCount,
		"score", r.Score,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store reputation record: %w", err)
	}
	return nil
}

// Lookup implements core.ReputationStore
func (s *RedisStore) Lookup(ctx context.Context, authorID string) (*core.ReputationSnapshot, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+authorID).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrReputationUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, core.ErrUnknownAuthor
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt created_at for %s", core.ErrReputationUnavailable, authorID)
	}
	// missing counters read as zero
	violations, _ := strconv.Atoi(fields["violations"])
	score, _ := strconv.ParseFloat(fields["score"], 64)

	r := Record{
		AuthorID:       authorID,
		CreatedAt:      time.UnixMilli(createdAt),
		ViolationCount: violations,
		Score:          score,
	}
	return r.Snapshot(s.now()), nil
}

// AdjustScore implements core.ReputationStore
func (s *RedisStore) AdjustScore(ctx context.Context, authorID string, delta float64) error {
	key := redisKeyPrefix + authorID
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrUnknownAuthor
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrByFloat(ctx, key, "score", delta)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, core.ErrUnknownAuthor) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrReputationUnavailable, err)
	}
	s.logger.Debug("Adjusted reputation score",
		zap.String("author_id", authorID),
		zap.Float64("delta", delta))
	return nil
}

// Close closes the redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
