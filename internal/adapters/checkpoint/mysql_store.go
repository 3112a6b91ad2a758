package checkpoint

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "MySQL",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS history_checkpoint (
			namespace VARCHAR(64) NOT NULL,
			entity_key VARCHAR(255) NOT NULL,
			payload LONGBLOB NOT NULL,
			saved_at BIGINT NOT NULL,
			PRIMARY KEY (namespace, entity_key)
		)
	`},
}

// MySQLStore is a MySQL implementation of core.CheckpointStore
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore connects to the checkpoint database at dsn
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	store, err := newSQLStore(db, mysqlDialect, logger)
	if err != nil {
		return nil, err
	}
	return &MySQLStore{store}, nil
}
