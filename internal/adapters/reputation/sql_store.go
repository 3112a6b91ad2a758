package reputation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

// dialect holds the statements that differ between SQL backends
type dialect struct {
	name   string
	schema []string
	upsert string
}

// sqlStore is the database/sql implementation shared by the SQLite and MySQL stores
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	now     Clock
}

func newSQLStore(db *sql.DB, d dialect, logger *zap.Logger, now Clock) (*sqlStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s reputation schema: %w", d.name, err)
		}
	}
	if now == nil {
		now = time.Now
	}
	return &sqlStore{db: db, dialect: d, logger: logger, now: now}, nil
}

// Put stores or replaces a record
func (s *sqlStore) Put(ctx context.Context, r Record) error {
	if r.AuthorID == "" {
		return fmt.Errorf("%w: missing author_id", core.ErrMalformedEvent)
	}
	_, err := s.db.ExecContext(ctx, s.dialect.upsert,
		r.AuthorID, r.CreatedAt.UnixMilli(), r.ViolationCount, r.Score, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store reputation record: %w", err)
	}
	return nil
}

// Lookup implements core.ReputationStore
func (s *sqlStore) Lookup(ctx context.Context, authorID string) (*core.ReputationSnapshot, error) {
	var (
		createdAt  int64
		violations int
		score      float64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at, violation_count, score
		FROM author_reputation
		WHERE author_id = ?
	`, authorID).Scan(&createdAt, &violations, &score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUnknownAuthor
		}
		return nil, fmt.Errorf("%w: %w", core.ErrReputationUnavailable, err)
	}

	r := Record{
		AuthorID:       authorID,
		CreatedAt:      time.UnixMilli(createdAt),
		ViolationCount: violations,
		Score:          score,
	}
	return r.Snapshot(s.now()), nil
}

// AdjustScore implements core.ReputationStore
func (s *sqlStore) AdjustScore(ctx context.Context, authorID string, delta float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE author_reputation
		SET score = score + ?, updated_at = ?
		WHERE author_id = ?
	`, delta, s.now().UnixMilli(), authorID)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrReputationUnavailable, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during score adjustment", zap.Error(err))
		return nil
	}
	if rows == 0 {
		return core.ErrUnknownAuthor
	}
	s.logger.Debug("Adjusted reputation score",
		zap.String("author_id", authorID),
		zap.Float64("delta", delta))
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}
