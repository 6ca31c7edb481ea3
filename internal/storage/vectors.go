package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UpsertVector inserts or replaces the embedding row for a file path.
func (s *SQLiteStore) UpsertVector(ctx context.Context, rec *VectorRecord) error {
	if rec == nil {
		return errors.New("vector record cannot be nil")
	}
	if rec.FilePath == "" {
		return errors.New("file path is required")
	}
	if len(rec.Embedding) == 0 {
		return errors.New("embedding is required")
	}

	indexedAt := rec.IndexedAtMs
	if indexedAt == 0 {
		indexedAt = time.Now().UnixMilli()
	}

	blob := encodeEmbedding(rec.Embedding)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vectors (file_path, content_hash, content_preview, embedding, dimension, model, indexed_at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
		  content_hash = excluded.content_hash,
		  content_preview = excluded.content_preview,
		  embedding = excluded.embedding,
		  dimension = excluded.dimension,
		  model = excluded.model,
		  indexed_at_unix_ms = excluded.indexed_at_unix_ms
	`, rec.FilePath, rec.ContentHash, rec.Preview, blob, len(rec.Embedding), rec.Model, indexedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

// AllVectors loads every embedding row. The result is the candidate set
// for brute-force similarity scans, so rows with a corrupt blob are
// skipped rather than failing the whole query.
func (s *SQLiteStore) AllVectors(ctx context.Context) ([]VectorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, content_hash, content_preview, embedding, model, indexed_at_unix_ms
		FROM vectors
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var records []VectorRecord
	for rows.Next() {
		var rec VectorRecord
		var blob []byte
		if err := rows.Scan(&rec.FilePath, &rec.ContentHash, &rec.Preview, &blob, &rec.Model, &rec.IndexedAtMs); err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}
		emb, err := decodeEmbedding(blob)
		if err != nil {
			s.logger.Warn("skipping corrupt embedding", "path", rec.FilePath, "error", err)
			continue
		}
		rec.Embedding = emb
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vectors: %w", err)
	}
	return records, nil
}

// VectorHashes returns a map of file path to stored content hash, used
// by incremental indexing to skip unchanged files.
func (s *SQLiteStore) VectorHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, content_hash FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan vector hash: %w", err)
		}
		hashes[path] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector hashes: %w", err)
	}
	return hashes, nil
}

// DeleteVector removes the embedding row for a file path. Returns true
// if a row was removed.
func (s *SQLiteStore) DeleteVector(ctx context.Context, filePath string) (bool, error) {
	if filePath == "" {
		return false, errors.New("file path is required")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE file_path = ?`, filePath)
	if err != nil {
		return false, fmt.Errorf("failed to delete vector: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ClearVectors deletes every embedding row and returns the number removed.
func (s *SQLiteStore) ClearVectors(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vectors`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear vectors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// VectorCount returns the number of embedding rows.
func (s *SQLiteStore) VectorCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return n, nil
}
