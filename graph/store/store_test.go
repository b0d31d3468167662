package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/raggraph-go/graph/store"
)

func seed(t *testing.T, s store.Store) {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []store.Entry{
		{ID: "e1", RunID: "r1", Role: "user", Content: "Paris weather is mild in spring", CreatedAt: base},
		{ID: "e2", RunID: "r1", Role: "assistant", Content: "Weather report for Berlin", CreatedAt: base.Add(time.Minute)},
		{ID: "e3", RunID: "r2", Role: "user", Content: "PARIS museums open late", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "e4", RunID: "r2", Role: "assistant", Content: "Unrelated note", CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		if err := s.Save(context.Background(), e); err != nil {
			t.Fatalf("Save(%s) error = %v", e.ID, err)
		}
	}
}

func ids(entries []store.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// testContract runs the behavior every Store implementation must share.
func testContract(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("ranks by term hits then recency", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.Search(context.Background(), "paris weather", 0)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if diff := cmp.Diff([]string{"e1", "e3", "e2"}, ids(got)); diff != "" {
			t.Errorf("unexpected ranking (-want +got):\n%s", diff)
		}
	})

	t.Run("limit trims results", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.Search(context.Background(), "paris weather", 2)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if diff := cmp.Diff([]string{"e1", "e3"}, ids(got)); diff != "" {
			t.Errorf("unexpected results (-want +got):\n%s", diff)
		}
	})

	t.Run("round trips fields", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.Search(context.Background(), "berlin", 1)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 result, got %d", len(got))
		}
		want := store.Entry{
			ID:        "e2",
			RunID:     "r1",
			Role:      "assistant",
			Content:   "Weather report for Berlin",
			CreatedAt: time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC),
		}
		if diff := cmp.Diff(want, got[0]); diff != "" {
			t.Errorf("entry mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty query returns nothing", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.Search(context.Background(), "  ?! ", 0)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no results, got %v", ids(got))
		}
	})

	t.Run("folds non-ASCII case", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		for _, e := range []store.Entry{
			{ID: "u1", Role: "user", Content: "Über Straße"},
			{ID: "u2", Role: "user", Content: "ÉCOLE PRIMAIRE"},
		} {
			if err := s.Save(ctx, e); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		for query, want := range map[string]string{
			"über":   "u1",
			"ÜBER":   "u1",
			"école":  "u2",
			"straße": "u1",
		} {
			got, err := s.Search(ctx, query, 0)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", query, err)
			}
			if diff := cmp.Diff([]string{want}, ids(got)); diff != "" {
				t.Errorf("Search(%q) (-want +got):\n%s", query, diff)
			}
		}
	})

	t.Run("fills id and timestamp", func(t *testing.T) {
		s := open(t)
		if err := s.Save(context.Background(), store.Entry{Role: "user", Content: "remember the milk"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := s.Search(context.Background(), "milk", 0)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 result, got %d", len(got))
		}
		if got[0].ID == "" {
			t.Error("expected generated ID")
		}
		if got[0].CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	})

	t.Run("closed store rejects calls", func(t *testing.T) {
		s := open(t)
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("expected double close to be a no-op, got %v", err)
		}
		if err := s.Save(context.Background(), store.Entry{Content: "x"}); !errors.Is(err, store.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
		if _, err := s.Search(context.Background(), "x", 0); !errors.Is(err, store.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestMemStore(t *testing.T) {
	testContract(t, func(t *testing.T) store.Store {
		s := store.NewMemStore()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemStore_CancelledContext(t *testing.T) {
	s := store.NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Save(ctx, store.Entry{Content: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected nothing stored, got %d", s.Len())
	}
}

func TestSQLiteStore(t *testing.T) {
	testContract(t, func(t *testing.T) store.Store {
		s, err := store.NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := t.TempDir() + "/memory.db"

	first, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := first.Save(context.Background(), store.Entry{ID: "keep", Content: "the launch code is blue"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	got, err := second.Search(context.Background(), "launch code", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if diff := cmp.Diff([]string{"keep"}, ids(got)); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}
	if second.Path() != path {
		t.Errorf("expected path %q, got %q", path, second.Path())
	}
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL test: set TEST_MYSQL_DSN to run")
	}

	testContract(t, func(t *testing.T) store.Store {
		s, err := store.NewMySQLStore(dsn)
		if err != nil {
			t.Fatalf("NewMySQLStore() error = %v", err)
		}
		if err := store.TruncateForTest(s); err != nil {
			t.Fatalf("reset error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"What's the Weather in Paris?", []string{"what", "the", "weather", "in", "paris"}},
		{"go go GO", []string{"go"}},
		{"a b c", []string{}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := store.Terms(tt.query)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Terms(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}
