// Package index builds and maintains the file embedding index.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/runger/burrow/internal/embed"
	"github.com/runger/burrow/internal/extract"
	"github.com/runger/burrow/internal/storage"
)

// ErrAlreadyRunning is returned when a run is requested while another
// one is in flight. Requests are rejected, never queued.
var ErrAlreadyRunning = errors.New("indexing already in progress")

// Run phases, in order of appearance.
const (
	PhaseIdle      = "idle"
	PhaseScanning  = "scanning"
	PhaseEmbedding = "embedding"
	PhaseCleanup   = "cleanup"
	PhaseFailed    = "failed"
)

// Stats summarizes one finished run.
type Stats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Removed int `json:"removed"`
	Errors  int `json:"errors"`
}

// Progress is a point-in-time snapshot of the running (or last) run.
type Progress struct {
	Running     bool   `json:"running"`
	Phase       string `json:"phase"`
	CurrentFile string `json:"current_file"`
	Processed   int    `json:"processed"`
	Total       int    `json:"total"`
	Errors      int    `json:"errors"`
	LastResult  string `json:"last_result"`
}

// Options configures an Indexer.
type Options struct {
	Dirs        func() []string
	Extensions  []string
	MaxFileSize int64
	Workers     int
	Interval    time.Duration
}

// Indexer walks the configured directories, extracts file content, and
// stores one embedding per file. At most one run executes at a time.
type Indexer struct {
	store     storage.Store
	embedder  embed.Embedder
	extractor *extract.Extractor
	opts      Options
	logger    *slog.Logger

	running  atomic.Bool
	mu       sync.Mutex
	progress Progress
}

// New creates an Indexer.
func New(store storage.Store, embedder embed.Embedder, extractor *extract.Extractor, opts Options, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Indexer{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		opts:      opts,
		logger:    logger.With("component", "indexer"),
		progress:  Progress{Phase: PhaseIdle},
	}
}

// Progress returns a snapshot safe to serve while a run is in flight.
func (ix *Indexer) Progress() Progress {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.progress
}

func (ix *Indexer) update(f func(*Progress)) {
	ix.mu.Lock()
	f(&ix.progress)
	ix.mu.Unlock()
}

// Full rebuilds the index from scratch: existing vectors are dropped,
// then every indexable file is embedded.
func (ix *Indexer) Full(ctx context.Context) (Stats, error) {
	return ix.run(ctx, true)
}

// Incremental indexes new and changed files, skipping files whose
// content hash is unchanged, and removes records of deleted files.
func (ix *Indexer) Incremental(ctx context.Context) (Stats, error) {
	return ix.run(ctx, false)
}

func (ix *Indexer) run(ctx context.Context, full bool) (Stats, error) {
	if !ix.running.CompareAndSwap(false, true) {
		return Stats{}, ErrAlreadyRunning
	}
	defer ix.running.Store(false)

	var stats Stats
	ix.update(func(p *Progress) {
		*p = Progress{Running: true, Phase: PhaseScanning, LastResult: p.LastResult}
	})

	known := make(map[string]string)
	if full {
		if _, err := ix.store.ClearVectors(ctx); err != nil {
			return ix.fail(fmt.Errorf("failed to clear vectors: %w", err))
		}
	} else {
		hashes, err := ix.store.VectorHashes(ctx)
		if err != nil {
			return ix.fail(err)
		}
		known = hashes
	}

	paths := ix.collectPaths()

	// Embedding backend availability is checked once up front so a dead
	// backend fails the run instead of producing one error per file.
	if len(paths) > 0 {
		if _, err := ix.embedder.EmbedText(ctx, "ping"); err != nil {
			return ix.fail(fmt.Errorf("embedding backend unavailable: %w", err))
		}
	}

	ix.update(func(p *Progress) {
		p.Phase = PhaseEmbedding
		p.Total = len(paths)
	})

	pool, err := ants.NewPool(ix.opts.Workers)
	if err != nil {
		return ix.fail(fmt.Errorf("failed to create worker pool: %w", err))
	}
	defer pool.Release()

	var (
		indexed atomic.Int64
		skipped atomic.Int64
		failed  atomic.Int64
		wg      sync.WaitGroup
	)
	for _, path := range paths {
		path := path
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			ix.update(func(p *Progress) { p.CurrentFile = filepath.Base(path) })

			switch err := ix.indexFile(ctx, path, known); {
			case errors.Is(err, errUnchanged):
				skipped.Add(1)
			case err != nil:
				failed.Add(1)
				ix.logger.Debug("failed to index file", "path", path, "err", err)
			default:
				indexed.Add(1)
			}
			ix.update(func(p *Progress) {
				p.Processed = int(indexed.Load() + failed.Load() + skipped.Load())
				p.Errors = int(failed.Load())
			})
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
		}
	}
	wg.Wait()

	stats.Indexed = int(indexed.Load())
	stats.Skipped = int(skipped.Load())
	stats.Errors = int(failed.Load())

	if !full {
		ix.update(func(p *Progress) { p.Phase = PhaseCleanup })
		stats.Removed = ix.cleanupStale(ctx)
	}

	summary := fmt.Sprintf("Indexed %d, skipped %d, removed %d, %d errors",
		stats.Indexed, stats.Skipped, stats.Removed, stats.Errors)
	ix.update(func(p *Progress) {
		p.Running = false
		p.Phase = PhaseIdle
		p.CurrentFile = ""
		p.LastResult = summary
	})
	ix.logger.Info("index run finished",
		"full", full,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"removed", stats.Removed,
		"errors", stats.Errors)
	return stats, nil
}

func (ix *Indexer) fail(err error) (Stats, error) {
	ix.update(func(p *Progress) {
		p.Running = false
		p.Phase = PhaseFailed
		p.CurrentFile = ""
		p.LastResult = err.Error()
	})
	return Stats{}, err
}

// errUnchanged marks a file skipped because its content hash matches
// the stored record.
var errUnchanged = errors.New("content unchanged")

func (ix *Indexer) indexFile(ctx context.Context, path string, known map[string]string) error {
	content, err := ix.extractor.Text(ctx, path)
	if err != nil {
		return err
	}

	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])
	if prev, ok := known[path]; ok && prev == hash {
		return errUnchanged
	}

	vec, err := ix.embedder.EmbedText(ctx, content)
	if err != nil {
		return err
	}

	preview := content
	if runes := []rune(preview); len(runes) > 200 {
		preview = string(runes[:200])
	}
	return ix.store.UpsertVector(ctx, &storage.VectorRecord{
		FilePath:    path,
		ContentHash: hash,
		Preview:     preview,
		Embedding:   vec,
		Model:       ix.embedder.Model(),
	})
}

// collectPaths walks every configured directory, skipping hidden files
// and directories, files with unsupported extensions, and oversized
// files. Missing directories are ignored.
func (ix *Indexer) collectPaths() []string {
	allowed := make(map[string]bool, len(ix.opts.Extensions))
	for _, ext := range ix.opts.Extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	var paths []string
	for _, dir := range ix.opts.Dirs() {
		root := dir
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") && path != root {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
			if ext == "" || !allowed[ext] {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if ix.opts.MaxFileSize > 0 && info.Size() > ix.opts.MaxFileSize {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
	}
	return paths
}

// cleanupStale deletes records whose file no longer exists on disk.
func (ix *Indexer) cleanupStale(ctx context.Context) int {
	hashes, err := ix.store.VectorHashes(ctx)
	if err != nil {
		ix.logger.Warn("failed to load vector paths for cleanup", "err", err)
		return 0
	}
	removed := 0
	for path := range hashes {
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if ok, err := ix.store.DeleteVector(ctx, path); err == nil && ok {
			removed++
		}
	}
	return removed
}

// RunPeriodic runs incremental updates on the configured interval until
// the context is cancelled. An in-flight manual run makes the periodic
// tick a no-op.
func (ix *Indexer) RunPeriodic(ctx context.Context) {
	if ix.opts.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(ix.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := ix.Incremental(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				ix.logger.Warn("periodic index run failed", "err", err)
			}
		}
	}
}
