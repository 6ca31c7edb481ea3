package providers

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/runger/burrow/internal/embed"
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/storage"
)

func newVectorFixture(t *testing.T) (*VectorProvider, *storage.SQLiteStore, *embed.Mock) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	mock := embed.NewMock()
	p := NewVectorProvider(store, mock, true, 5, 0.3, nil)
	return p, store, mock
}

func seedVector(t *testing.T, store *storage.SQLiteStore, path, preview string, vec []float32) {
	t.Helper()
	err := store.UpsertVector(context.Background(), &storage.VectorRecord{
		FilePath:    path,
		ContentHash: "h",
		Preview:     preview,
		Embedding:   vec,
		Model:       "mock-embed",
	})
	if err != nil {
		t.Fatalf("UpsertVector: %v", err)
	}
}

func TestVectorSearchRanksBySimilarity(t *testing.T) {
	t.Parallel()
	p, store, mock := newVectorFixture(t)
	mock.Default = []float32{1, 0, 0}

	seedVector(t, store, "/docs/close.md", "close match", []float32{1, 0.1, 0})
	seedVector(t, store, "/docs/far.md", "far match", []float32{0.5, 0.8, 0.3})
	seedVector(t, store, "/docs/orthogonal.md", "unrelated", []float32{0, 1, 0})

	results, err := p.Search(context.Background(), "find my notes")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above the floor, got %d", len(results))
	}
	if results[0].ID != "/docs/close.md" {
		t.Errorf("expected best match first, got %q", results[0].ID)
	}
	if results[0].Name != "close.md" {
		t.Errorf("name should be the base name, got %q", results[0].Name)
	}
	if results[0].Category != result.CategoryVector {
		t.Errorf("unexpected category %q", results[0].Category)
	}
	if results[0].Exec != "" {
		t.Errorf("vector results must carry no exec, got %q", results[0].Exec)
	}
}

func TestVectorSearchIdenticalVectorScoresFull(t *testing.T) {
	t.Parallel()
	p, store, mock := newVectorFixture(t)
	mock.Default = []float32{0.4, -0.2, 0.9}

	seedVector(t, store, "/docs/same.md", "identical content", []float32{0.4, -0.2, 0.9})

	results, err := p.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.HasPrefix(results[0].Description, "100% — ") {
		t.Errorf("identical vector should score 100%%: %q", results[0].Description)
	}
	if !strings.Contains(results[0].Description, "identical content") {
		t.Errorf("description should include the preview: %q", results[0].Description)
	}
}

func TestVectorSearchEmptyQuery(t *testing.T) {
	t.Parallel()
	p, _, _ := newVectorFixture(t)

	results, err := p.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for empty query, got %d", len(results))
	}
}

func TestVectorSearchTopK(t *testing.T) {
	t.Parallel()
	p, store, mock := newVectorFixture(t)
	mock.Default = []float32{1, 0}

	for i := 0; i < 10; i++ {
		seedVector(t, store, "/docs/f"+string(rune('a'+i))+".md", "x", []float32{1, float32(i) * 0.01})
	}

	results, err := p.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("expected top-k of 5, got %d", len(results))
	}
}

func TestVectorSearchDisabled(t *testing.T) {
	t.Parallel()
	_, store, mock := newVectorFixture(t)
	p := NewVectorProvider(store, mock, false, 5, 0.3, nil)

	results, err := p.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Category != result.CategoryInfo {
		t.Errorf("expected a single info row when disabled, got %+v", results)
	}
	// The mock must not be called when vector search is off.
	if len(mock.Calls) != 0 {
		t.Errorf("embedder called while disabled: %v", mock.Calls)
	}
}

func TestVectorSearchEmbedFailure(t *testing.T) {
	t.Parallel()
	p, _, mock := newVectorFixture(t)
	mock.Err = context.DeadlineExceeded

	if _, err := p.Search(context.Background(), "q"); err == nil {
		t.Error("expected error when the embedding backend fails")
	}
}

func TestContextDegradesToEmpty(t *testing.T) {
	t.Parallel()
	p, store, mock := newVectorFixture(t)

	// Backend failure yields no context, not an error.
	mock.Err = context.DeadlineExceeded
	if got := p.Context(context.Background(), "q"); got != nil {
		t.Errorf("expected nil context on embed failure, got %v", got)
	}

	mock.Err = nil
	mock.Default = []float32{1, 0}
	seedVector(t, store, "/docs/ctx.md", "context preview", []float32{1, 0})

	snippets := p.Context(context.Background(), "q")
	if len(snippets) != 1 || snippets[0].Path != "/docs/ctx.md" || snippets[0].Preview != "context preview" {
		t.Errorf("unexpected snippets: %+v", snippets)
	}
}
