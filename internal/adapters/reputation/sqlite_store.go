package reputation

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "SQLite",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS author_reputation (
			author_id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			violation_count INTEGER NOT NULL DEFAULT 0,
			score REAL NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)
	`},
	upsert: `
		INSERT INTO author_reputation (author_id, created_at, violation_count, score, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(author_id) DO UPDATE SET
			created_at = excluded.created_at,
			violation_count = excluded.violation_count,
			score = excluded.score,
			updated_at = excluded.updated_at
	`,
}

// SQLiteStore is a SQLite implementation of core.ReputationStore
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (and if needed creates) the reputation database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger, now Clock) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	store, err := newSQLStore(db, sqliteDialect, logger, now)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{store}, nil
}
