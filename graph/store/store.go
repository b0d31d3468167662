// Package store provides conversation memory backends for memory lookup.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Entry is one remembered piece of conversation.
type Entry struct {
	ID        string
	RunID     string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store persists conversation entries and retrieves the ones most relevant
// to a free-text query.
//
// Implementations:
//   - MemStore: in-process, for tests and one-shot CLI runs
//   - SQLiteStore: single-file database (modernc.org/sqlite, no cgo)
//   - MySQLStore: shared database for several processes
//
// Search ranks entries by how many distinct query terms their content
// contains, newest first on ties. Entries matching no term are omitted.
type Store interface {
	// Save persists entry. A zero CreatedAt is replaced with the current time
	// and an empty ID with a generated one.
	Save(ctx context.Context, entry Entry) error

	// Search returns at most limit entries relevant to query.
	// A limit <= 0 means no limit.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)

	// Close releases resources. Closing twice is a no-op.
	Close() error
}

// Terms splits query into lowercase search terms, dropping duplicates and
// terms shorter than two runes.
func Terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || slices.Contains(terms, f) {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

type scored struct {
	entry Entry
	score int
}

// rank orders candidates by term hits and trims to limit.
func rank(candidates []Entry, terms []string, limit int) []Entry {
	if len(terms) == 0 {
		return nil
	}
	var hits []scored
	for _, e := range candidates {
		content := strings.ToLower(e.Content)
		n := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{entry: e, score: n})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return b.entry.CreatedAt.Compare(a.entry.CreatedAt)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out
}
