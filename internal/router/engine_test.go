package router

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runger/burrow/internal/apps"
	"github.com/runger/burrow/internal/embed"
	"github.com/runger/burrow/internal/providers"
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/storage"
	"github.com/runger/burrow/internal/vault"
)

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStore, *embed.Mock) {
	t.Helper()

	appDir := t.TempDir()
	desktop := `[Desktop Entry]
Type=Application
Name=Firefox
Exec=firefox %u
`
	if err := os.WriteFile(filepath.Join(appDir, "firefox.desktop"), []byte(desktop), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	scanner := apps.NewScannerForDirs(nil, appDir)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fileDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(fileDir, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sshConfig := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(sshConfig, []byte("Host dev\n    HostName dev.example.com\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mock := embed.NewMock()
	mock.Default = []float32{1, 0}

	e := NewEngine(nil)
	e.Apps = providers.NewAppProvider(scanner, store, 10, 0, nil)
	e.Files = providers.NewFileProvider(func() []string { return []string{fileDir} }, 10)
	e.SSH = providers.NewSSHProvider(sshConfig, "kitty", 10)
	e.Vault = providers.NewVaultProvider(vault.New(time.Minute), 10)
	e.Settings = providers.NewSettingsProvider()
	e.Special = providers.NewSpecialProvider(nil)
	e.Vector = providers.NewVectorProvider(store, mock, true, 10, 0.3, nil)
	e.Chat = &providers.ChatProvider{}
	e.MaxResults = 15
	return e, store, mock
}

func search(t *testing.T, e *Engine, query string) []result.SearchResult {
	t.Helper()
	results, err := e.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search(%q): %v", query, err)
	}
	return results
}

func TestEngineRoutesByPrefix(t *testing.T) {
	t.Parallel()
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	if err := store.RecordLaunch(ctx, &storage.Launch{ID: "firefox", Name: "Firefox", Exec: "firefox"}); err != nil {
		t.Fatalf("RecordLaunch: %v", err)
	}

	cases := []struct {
		query string
		want  result.Category
	}{
		{"", result.CategoryHistory},
		{"fire", result.CategoryApp},
		{" readme", result.CategoryFile},
		{"!git", result.CategoryInfo}, // locked vault hint
		{"ssh dev", result.CategorySSH},
		{"2+3", result.CategoryMath},
		{":reindex", result.CategoryAction},
		{"?what is go", result.CategoryChat},
		{"#cowork", result.CategorySpecial},
	}
	for _, tc := range cases {
		results := search(t, e, tc.query)
		if len(results) == 0 {
			t.Errorf("Search(%q): expected results", tc.query)
			continue
		}
		if results[0].Category != tc.want {
			t.Errorf("Search(%q): category %q, want %q", tc.query, results[0].Category, tc.want)
		}
	}
}

func TestEngineMathResult(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t)

	results := search(t, e, "2+3")
	if len(results) != 1 || results[0].Name != "= 5" {
		t.Errorf("unexpected math results: %+v", results)
	}
}

func TestEngineInvalidMathFallsBackToApps(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t)

	// "1/0" is not a valid expression, so it becomes an app query with
	// no matches rather than an error.
	results := search(t, e, "1/0")
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestEngineEmptyVectorQuery(t *testing.T) {
	t.Parallel()
	e, _, mock := newTestEngine(t)

	results := search(t, e, " *")
	if len(results) != 0 {
		t.Errorf("expected no results for empty vector query, got %+v", results)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("embedder must not be called for an empty vector query")
	}
}

func TestEngineVectorSearch(t *testing.T) {
	t.Parallel()
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	err := store.UpsertVector(ctx, &storage.VectorRecord{
		FilePath:    "/docs/notes.md",
		ContentHash: "h",
		Preview:     "meeting notes",
		Embedding:   []float32{1, 0},
		Model:       "mock-embed",
	})
	if err != nil {
		t.Fatalf("UpsertVector: %v", err)
	}

	results := search(t, e, " *meeting")
	if len(results) != 1 || results[0].Category != result.CategoryVector {
		t.Fatalf("unexpected vector results: %+v", results)
	}
}

func TestEngineVectorBackendDownDegrades(t *testing.T) {
	t.Parallel()
	e, _, mock := newTestEngine(t)
	mock.Err = errors.New("connection refused")

	// An unreachable embedding backend degrades to an empty result
	// set; the failure never surfaces as a query error.
	results := search(t, e, " *meeting")
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestEngineCapsResults(t *testing.T) {
	t.Parallel()
	e, _, _ := newTestEngine(t)
	e.MaxResults = 2

	// Settings menu has more than two entries; the cap applies.
	results := search(t, e, ":")
	if len(results) != 2 {
		t.Errorf("expected capped results, got %d", len(results))
	}
}
