package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

// sqlStore holds the query logic shared by SQLiteStore and MySQLStore.
// Both dialects accept ? placeholders. Matching runs against the folded
// column, which holds the content lowercased by Go, so non-ASCII case is
// handled the same way as in MemStore.
type sqlStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

func (s *sqlStore) save(ctx context.Context, entry Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	entry = fill(entry)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_entries (id, run_id, role, content, folded, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RunID, entry.Role, entry.Content, strings.ToLower(entry.Content), entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

func (s *sqlStore) search(ctx context.Context, query string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	terms := Terms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	clauses := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, term := range terms {
		clauses[i] = "folded LIKE ?"
		args[i] = "%" + term + "%"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, role, content, created_at FROM memory_entries WHERE `+strings.Join(clauses, " OR "),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []Entry
	for rows.Next() {
		var (
			e    Entry
			nano int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Role, &e.Content, &nano); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, nano).UTC()
		candidates = append(candidates, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return rank(candidates, terms, limit), nil
}

func (s *sqlStore) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
