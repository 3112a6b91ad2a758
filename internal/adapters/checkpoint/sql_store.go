package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mikey/chat-spam-guard/internal/core"
	"go.uber.org/zap"
)

type dialect struct {
	name   string
	schema []string
}

// sqlStore keeps one row per (namespace, key) blob
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func newSQLStore(db *sql.DB, d dialect, logger *zap.Logger) (*sqlStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s checkpoint schema: %w", d.name, err)
		}
	}
	return &sqlStore{db: db, dialect: d, logger: logger}, nil
}

// Save replaces the namespace's blobs in one transaction
func (s *sqlStore) Save(ctx context.Context, namespace string, blobs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_checkpoint WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history_checkpoint (namespace, entity_key, payload, saved_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare checkpoint insert: %w", err)
	}
	defer stmt.Close()

	savedAt := time.Now().UnixMilli()
	for key, blob := range blobs {
		if _, err := stmt.ExecContext(ctx, namespace, key, blob, savedAt); err != nil {
			return fmt.Errorf("failed to write checkpoint for %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	s.logger.Debug("Saved checkpoint", zap.String("namespace", namespace), zap.Int("keys", len(blobs)))
	return nil
}

// Load returns core.ErrNoCheckpoint when the namespace has never been saved
func (s *sqlStore) Load(ctx context.Context, namespace string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_key, payload
		FROM history_checkpoint
		WHERE namespace = ?
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	}
	defer rows.Close()

	blobs := make(map[string][]byte)
	for rows.Next() {
		var (
			key  string
			blob []byte
		)
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		blobs[key] = blob
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(blobs) == 0 {
		return nil, core.ErrNoCheckpoint
	}
	return blobs, nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}
