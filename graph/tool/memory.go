package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/raggraph-go/graph/store"
)

// DefaultMemoryLimit is the number of entries MemoryLookup returns.
const DefaultMemoryLimit = 5

// MemoryLookup searches conversation memory.
//
// Input:
//   - description: what to remember, in free text
//
// Output:
//   - query: the description
//   - memories: []map{"role", "content", "created_at"}, best match first
//   - summary: the memories as "role: content" lines
type MemoryLookup struct {
	store store.Store
	limit int
}

// NewMemoryLookup creates a lookup over s returning up to limit entries.
// A limit <= 0 uses DefaultMemoryLimit.
func NewMemoryLookup(s store.Store, limit int) *MemoryLookup {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryLookup{store: s, limit: limit}
}

// Name returns "memory_lookup".
func (m *MemoryLookup) Name() string {
	return "memory_lookup"
}

// Call searches memory for input["description"].
func (m *MemoryLookup) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	description, err := stringParam(input, "description")
	if err != nil {
		return nil, err
	}

	entries, err := m.store.Search(ctx, description, m.limit)
	if err != nil {
		return nil, fmt.Errorf("memory search failed: %w", err)
	}

	memories := make([]map[string]interface{}, 0, len(entries))
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		memories = append(memories, map[string]interface{}{
			"role":       e.Role,
			"content":    e.Content,
			"created_at": e.CreatedAt.Format(time.RFC3339),
		})
		lines = append(lines, e.Role+": "+e.Content)
	}

	summary := "No memories found for this description."
	if len(lines) > 0 {
		summary = strings.Join(lines, "\n")
	}

	return map[string]interface{}{
		"query":    description,
		"memories": memories,
		"summary":  summary,
	}, nil
}
