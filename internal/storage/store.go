// Package storage provides SQLite-based persistent storage for burrow.
// It holds the launch history ledger and the embedding records used by
// semantic search.
package storage

import "context"

// Store defines the interface for all storage operations.
// The daemon is the single writer; the CLI talks to it over the socket
// rather than opening the DB directly.
type Store interface {
	// Launch history
	RecordLaunch(ctx context.Context, l *Launch) error
	Frecent(ctx context.Context, limit int) ([]Launch, error)
	FrecencyScores(ctx context.Context) (map[string]float64, error)
	RemoveLaunch(ctx context.Context, id string) (bool, error)
	ClearLaunches(ctx context.Context) (int64, error)
	LaunchCount(ctx context.Context) (int64, error)

	// Embedding records
	UpsertVector(ctx context.Context, rec *VectorRecord) error
	AllVectors(ctx context.Context) ([]VectorRecord, error)
	VectorHashes(ctx context.Context) (map[string]string, error)
	DeleteVector(ctx context.Context, filePath string) (bool, error)
	ClearVectors(ctx context.Context) (int64, error)
	VectorCount(ctx context.Context) (int64, error)

	// Lifecycle
	Close() error
}

// Launch is one row of the history ledger: a distinct launchable id with
// its frequency and recency bookkeeping.
type Launch struct {
	ID          string
	Name        string
	Exec        string
	Icon        string
	Description string
	Count       int64
	LastUsedMs  int64 // unix ms of the most recent launch
}

// VectorRecord is one indexed file: its content hash, a short preview,
// and the embedding vector.
type VectorRecord struct {
	FilePath    string
	ContentHash string
	Preview     string
	Embedding   []float32
	Model       string
	IndexedAtMs int64
}
