package checkpoint

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "SQLite",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS history_checkpoint (
			namespace TEXT NOT NULL,
			entity_key TEXT NOT NULL,
			payload BLOB NOT NULL,
			saved_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, entity_key)
		)
	`},
}

// SQLiteStore is a SQLite implementation of core.CheckpointStore
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (and if needed creates) the checkpoint database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	store, err := newSQLStore(db, sqliteDialect, logger)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{store}, nil
}
