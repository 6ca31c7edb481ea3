package storage

import (
	"context"
	"testing"
)

func TestUpsertVectorInsertAndReplace(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	rec := &VectorRecord{
		FilePath:    "/home/u/notes/a.md",
		ContentHash: "h1",
		Preview:     "first preview",
		Embedding:   []float32{0.1, 0.2, 0.3},
		Model:       "nomic-embed-text",
	}
	if err := store.UpsertVector(ctx, rec); err != nil {
		t.Fatalf("UpsertVector: %v", err)
	}

	rec.ContentHash = "h2"
	rec.Preview = "second preview"
	rec.Embedding = []float32{0.4, 0.5, 0.6, 0.7}
	if err := store.UpsertVector(ctx, rec); err != nil {
		t.Fatalf("second UpsertVector: %v", err)
	}

	records, err := store.AllVectors(ctx)
	if err != nil {
		t.Fatalf("AllVectors: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.ContentHash != "h2" || got.Preview != "second preview" {
		t.Errorf("row not replaced: %+v", got)
	}
	if len(got.Embedding) != 4 {
		t.Fatalf("expected 4 components, got %d", len(got.Embedding))
	}
	if got.Embedding[3] != 0.7 {
		t.Errorf("expected last component 0.7, got %v", got.Embedding[3])
	}
}

func TestUpsertVectorValidation(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertVector(ctx, nil); err == nil {
		t.Error("expected error for nil record")
	}
	if err := store.UpsertVector(ctx, &VectorRecord{Embedding: []float32{1}}); err == nil {
		t.Error("expected error for missing path")
	}
	if err := store.UpsertVector(ctx, &VectorRecord{FilePath: "/x"}); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestVectorHashes(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	recs := []VectorRecord{
		{FilePath: "/a", ContentHash: "ha", Embedding: []float32{1}},
		{FilePath: "/b", ContentHash: "hb", Embedding: []float32{2}},
	}
	for i := range recs {
		if err := store.UpsertVector(ctx, &recs[i]); err != nil {
			t.Fatalf("UpsertVector: %v", err)
		}
	}

	hashes, err := store.VectorHashes(ctx)
	if err != nil {
		t.Fatalf("VectorHashes: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(hashes))
	}
	if hashes["/a"] != "ha" || hashes["/b"] != "hb" {
		t.Errorf("unexpected hashes: %v", hashes)
	}
}

func TestDeleteAndClearVectors(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"/a", "/b", "/c"} {
		if err := store.UpsertVector(ctx, &VectorRecord{FilePath: path, ContentHash: "h", Embedding: []float32{1}}); err != nil {
			t.Fatalf("UpsertVector %s: %v", path, err)
		}
	}

	deleted, err := store.DeleteVector(ctx, "/b")
	if err != nil {
		t.Fatalf("DeleteVector: %v", err)
	}
	if !deleted {
		t.Error("expected deletion of existing row")
	}
	deleted, err = store.DeleteVector(ctx, "/missing")
	if err != nil {
		t.Fatalf("DeleteVector missing: %v", err)
	}
	if deleted {
		t.Error("expected no deletion for missing path")
	}

	n, err := store.ClearVectors(ctx)
	if err != nil {
		t.Fatalf("ClearVectors: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows cleared, got %d", n)
	}

	count, err := store.VectorCount(ctx)
	if err != nil {
		t.Fatalf("VectorCount: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty vector table, got %d", count)
	}
}

func TestEmbeddingCodecRoundTrip(t *testing.T) {
	t.Parallel()

	vec := []float32{0, 1.5, -2.25, 3.14159, -0.0001}
	blob := encodeEmbedding(vec)
	if len(blob) != 4*len(vec) {
		t.Fatalf("expected %d bytes, got %d", 4*len(vec), len(blob))
	}
	got, err := decodeEmbedding(blob)
	if err != nil {
		t.Fatalf("decodeEmbedding: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("expected %d components, got %d", len(vec), len(got))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d: expected %v, got %v", i, vec[i], got[i])
		}
	}
}

func TestDecodeEmbeddingRejectsTruncatedBlob(t *testing.T) {
	t.Parallel()

	if _, err := decodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for blob length not a multiple of 4")
	}
}
