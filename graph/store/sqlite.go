package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a single-file SQLite database.
//
// The path may be a file ("./memory.db") or ":memory:" for a database that
// lives only as long as the store. The table is created on first use.
type SQLiteStore struct {
	sqlStore
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
//
// Example:
//
//	mem, err := store.NewSQLiteStore("./memory.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mem.Close()
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time; a single connection also keeps
	// ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	table := `
		CREATE TABLE IF NOT EXISTS memory_entries (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			folded TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, table); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{sqlStore: sqlStore{db: db}, path: path}, nil
}

// Save inserts entry.
func (s *SQLiteStore) Save(ctx context.Context, entry Entry) error {
	return s.save(ctx, entry)
}

// Search returns entries whose content matches any query term, ranked.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	return s.search(ctx, query, limit)
}

// Close closes the database. Double-close is a no-op.
func (s *SQLiteStore) Close() error {
	return s.close()
}

// Path returns the database location passed to NewSQLiteStore.
func (s *SQLiteStore) Path() string {
	return s.path
}
