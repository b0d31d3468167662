package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore keeps entries in a MySQL/MariaDB database so several processes
// can share one memory.
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore connects to dsn and creates the table if needed.
//
// DSN format:
//
//	user:password@tcp(localhost:3306)/raggraph
//
// Never hardcode credentials; read the DSN from configuration or the
// environment.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	table := `
		CREATE TABLE IF NOT EXISTS memory_entries (
			id VARCHAR(64) PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			content TEXT NOT NULL,
			folded TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_run_id (run_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := db.ExecContext(ctx, table); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &MySQLStore{sqlStore: sqlStore{db: db}}, nil
}

// Save inserts entry.
func (m *MySQLStore) Save(ctx context.Context, entry Entry) error {
	return m.save(ctx, entry)
}

// Search returns entries whose content matches any query term, ranked.
func (m *MySQLStore) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	return m.search(ctx, query, limit)
}

// Close closes the connection pool. Double-close is a no-op.
func (m *MySQLStore) Close() error {
	return m.close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.db.PingContext(ctx)
}
