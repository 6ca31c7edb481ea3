package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/runger/burrow/internal/embed"
	"github.com/runger/burrow/internal/extract"
	"github.com/runger/burrow/internal/storage"
)

func newTestIndexer(t *testing.T, dir string, mock *embed.Mock) (*Indexer, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ix := New(store, mock, extract.NewExtractor(10000, time.Second, nil), Options{
		Dirs:        func() []string { return []string{dir} },
		Extensions:  []string{"txt", "md"},
		MaxFileSize: 1 << 20,
		Workers:     2,
	}, nil)
	return ix, store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestFullIndexesAllFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha content")
	writeFile(t, dir, "b.md", "beta content")
	writeFile(t, dir, "c.pdf", "ignored extension")
	writeFile(t, dir, ".hidden.txt", "hidden file")
	writeFile(t, dir, ".cache/d.txt", "hidden dir")

	mock := embed.NewMock()
	mock.Default = []float32{1, 0}
	ix, store := newTestIndexer(t, dir, mock)

	stats, err := ix.Full(context.Background())
	if err != nil {
		t.Fatalf("Full: %v", err)
	}
	if stats.Indexed != 2 || stats.Errors != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	n, err := store.VectorCount(context.Background())
	if err != nil {
		t.Fatalf("VectorCount: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 stored vectors, got %d", n)
	}
}

func TestFullClearsExistingVectors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	mock := embed.NewMock()
	mock.Default = []float32{1}
	ix, store := newTestIndexer(t, dir, mock)
	ctx := context.Background()

	if err := store.UpsertVector(ctx, &storage.VectorRecord{FilePath: "/gone/old.txt", ContentHash: "h", Embedding: []float32{1}}); err != nil {
		t.Fatalf("UpsertVector: %v", err)
	}

	if _, err := ix.Full(ctx); err != nil {
		t.Fatalf("Full: %v", err)
	}
	hashes, err := store.VectorHashes(ctx)
	if err != nil {
		t.Fatalf("VectorHashes: %v", err)
	}
	if _, ok := hashes["/gone/old.txt"]; ok {
		t.Error("full reindex kept a pre-existing vector")
	}
	if len(hashes) != 1 {
		t.Errorf("expected 1 vector after full reindex, got %d", len(hashes))
	}
}

func TestIncrementalSkipsUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "same.txt", "stable content")
	changed := writeFile(t, dir, "changed.txt", "version one")

	mock := embed.NewMock()
	mock.Default = []float32{1}
	ix, _ := newTestIndexer(t, dir, mock)
	ctx := context.Background()

	if _, err := ix.Incremental(ctx); err != nil {
		t.Fatalf("first Incremental: %v", err)
	}

	if err := os.WriteFile(changed, []byte("version two"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	stats, err := ix.Incremental(ctx)
	if err != nil {
		t.Fatalf("second Incremental: %v", err)
	}
	if stats.Indexed != 1 || stats.Skipped != 1 {
		t.Errorf("expected 1 indexed and 1 skipped, got %+v", stats)
	}
}

func TestIncrementalRemovesDeletedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	keep := writeFile(t, dir, "keep.txt", "keeper")
	gone := writeFile(t, dir, "gone.txt", "goner")

	mock := embed.NewMock()
	mock.Default = []float32{1}
	ix, store := newTestIndexer(t, dir, mock)
	ctx := context.Background()

	if _, err := ix.Incremental(ctx); err != nil {
		t.Fatalf("first Incremental: %v", err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	stats, err := ix.Incremental(ctx)
	if err != nil {
		t.Fatalf("second Incremental: %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("expected 1 removed, got %+v", stats)
	}
	hashes, err := store.VectorHashes(ctx)
	if err != nil {
		t.Fatalf("VectorHashes: %v", err)
	}
	if _, ok := hashes[keep]; !ok {
		t.Error("surviving file was removed from the index")
	}
	if _, ok := hashes[gone]; ok {
		t.Error("deleted file still has an index record")
	}
}

func TestConcurrentRunRejected(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	mock := embed.NewMock()
	mock.Default = []float32{1}
	ix, _ := newTestIndexer(t, dir, mock)

	// Hold the run flag the way an in-flight run would.
	if !ix.running.CompareAndSwap(false, true) {
		t.Fatal("could not acquire run flag")
	}
	defer ix.running.Store(false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := ix.Incremental(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning, got %v", err)
		}
	}()
	wg.Wait()
}

func TestBackendFailureFailsRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	mock := embed.NewMock()
	mock.Err = errors.New("backend down")
	ix, _ := newTestIndexer(t, dir, mock)

	if _, err := ix.Full(context.Background()); err == nil {
		t.Fatal("expected error when embedding backend is unreachable")
	}
	p := ix.Progress()
	if p.Running || p.Phase != PhaseFailed {
		t.Errorf("expected failed idle progress, got %+v", p)
	}
}

func TestProgressAfterRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	mock := embed.NewMock()
	mock.Default = []float32{1}
	ix, _ := newTestIndexer(t, dir, mock)

	if _, err := ix.Full(context.Background()); err != nil {
		t.Fatalf("Full: %v", err)
	}
	p := ix.Progress()
	if p.Running || p.Phase != PhaseIdle || p.Processed != 1 || p.LastResult == "" {
		t.Errorf("unexpected progress after run: %+v", p)
	}
}

func TestSizeCapExcludesLargeFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "small.txt", "ok")
	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'x'
	}
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), big, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mock := embed.NewMock()
	mock.Default = []float32{1}
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ix := New(store, mock, extract.NewExtractor(10000, time.Second, nil), Options{
		Dirs:        func() []string { return []string{dir} },
		Extensions:  []string{"txt"},
		MaxFileSize: 1024,
		Workers:     1,
	}, nil)

	stats, err := ix.Full(context.Background())
	if err != nil {
		t.Fatalf("Full: %v", err)
	}
	if stats.Indexed != 1 {
		t.Errorf("expected only the small file indexed, got %+v", stats)
	}
}
