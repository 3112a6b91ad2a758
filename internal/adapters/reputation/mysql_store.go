package reputation

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "MySQL",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS author_reputation (
			author_id VARCHAR(255) PRIMARY KEY,
			created_at BIGINT NOT NULL,
			violation_count INT NOT NULL DEFAULT 0,
			score DOUBLE NOT NULL DEFAULT 0,
			updated_at BIGINT NOT NULL
		)
	`},
	upsert: `
		INSERT INTO author_reputation (author_id, created_at, violation_count, score, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			created_at = VALUES(created_at),
			violation_count = VALUES(violation_count),
			score = VALUES(score),
			updated_at = VALUES(updated_at)
	`,
}

// MySQLStore is a MySQL implementation of core.ReputationStore
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore connects to the reputation database at dsn
func NewMySQLStore(dsn string, logger *zap.Logger, now Clock) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	store, err := newSQLStore(db, mysqlDialect, logger, now)
	if err != nil {
		return nil, err
	}
	return &MySQLStore{store}, nil
}
