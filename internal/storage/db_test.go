package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath, slog.Default())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	// Running migrations again on an already-migrated database must be
	// a no-op, not an error.
	if err := store.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath, slog.Default())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestRecordLaunchInsertAndIncrement(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	l := &Launch{ID: "app:firefox", Name: "Firefox", Exec: "firefox", Icon: "firefox", Description: "Web Browser"}
	if err := store.RecordLaunch(ctx, l); err != nil {
		t.Fatalf("RecordLaunch: %v", err)
	}
	if err := store.RecordLaunch(ctx, l); err != nil {
		t.Fatalf("second RecordLaunch: %v", err)
	}

	launches, err := store.Frecent(ctx, 10)
	if err != nil {
		t.Fatalf("Frecent: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}
	if launches[0].Count != 2 {
		t.Errorf("expected count 2, got %d", launches[0].Count)
	}
	if launches[0].Name != "Firefox" {
		t.Errorf("expected name Firefox, got %q", launches[0].Name)
	}
}

func TestRecordLaunchUpdatesMetadata(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordLaunch(ctx, &Launch{ID: "app:ff", Name: "Firefox", Exec: "firefox"}); err != nil {
		t.Fatalf("RecordLaunch: %v", err)
	}
	if err := store.RecordLaunch(ctx, &Launch{ID: "app:ff", Name: "Firefox ESR", Exec: "firefox-esr"}); err != nil {
		t.Fatalf("second RecordLaunch: %v", err)
	}

	launches, err := store.Frecent(ctx, 10)
	if err != nil {
		t.Fatalf("Frecent: %v", err)
	}
	if len(launches) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(launches))
	}
	if launches[0].Name != "Firefox ESR" || launches[0].Exec != "firefox-esr" {
		t.Errorf("metadata not refreshed: %+v", launches[0])
	}
}

func TestRecordLaunchValidation(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordLaunch(ctx, nil); err == nil {
		t.Error("expected error for nil launch")
	}
	if err := store.RecordLaunch(ctx, &Launch{Name: "x"}); err == nil {
		t.Error("expected error for missing id")
	}
	if err := store.RecordLaunch(ctx, &Launch{ID: "x"}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestFrecentOrdering(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	weekAgo := now - 7*24*int64(time.Hour/time.Millisecond)

	// "old" was launched many times but long ago; "fresh" once, just now.
	// The decay must not let stale count dominate recency entirely, and
	// for rows with equal recency higher count must win.
	for i := 0; i < 3; i++ {
		if err := store.RecordLaunch(ctx, &Launch{ID: "old", Name: "Old", LastUsedMs: weekAgo}); err != nil {
			t.Fatalf("RecordLaunch old: %v", err)
		}
	}
	if err := store.RecordLaunch(ctx, &Launch{ID: "fresh", Name: "Fresh", LastUsedMs: now}); err != nil {
		t.Fatalf("RecordLaunch fresh: %v", err)
	}

	launches, err := store.Frecent(ctx, 10)
	if err != nil {
		t.Fatalf("Frecent: %v", err)
	}
	if len(launches) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(launches))
	}
	// old: 3 * 1/(1+7) = 0.375, fresh: 1 * 1/(1+0) = 1.0
	if launches[0].ID != "fresh" {
		t.Errorf("expected fresh first, got %q", launches[0].ID)
	}
}

func TestFrecentEqualRecencyHigherCountWins(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	for i := 0; i < 5; i++ {
		if err := store.RecordLaunch(ctx, &Launch{ID: "busy", Name: "Busy", LastUsedMs: now}); err != nil {
			t.Fatalf("RecordLaunch busy: %v", err)
		}
	}
	if err := store.RecordLaunch(ctx, &Launch{ID: "quiet", Name: "Quiet", LastUsedMs: now}); err != nil {
		t.Fatalf("RecordLaunch quiet: %v", err)
	}

	launches, err := store.Frecent(ctx, 10)
	if err != nil {
		t.Fatalf("Frecent: %v", err)
	}
	if launches[0].ID != "busy" {
		t.Errorf("expected busy first, got %q", launches[0].ID)
	}
}

func TestFrecentLimit(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := store.RecordLaunch(ctx, &Launch{ID: id, Name: id}); err != nil {
			t.Fatalf("RecordLaunch %s: %v", id, err)
		}
	}

	launches, err := store.Frecent(ctx, 2)
	if err != nil {
		t.Fatalf("Frecent: %v", err)
	}
	if len(launches) != 2 {
		t.Errorf("expected 2 launches, got %d", len(launches))
	}

	none, err := store.Frecent(ctx, 0)
	if err != nil {
		t.Fatalf("Frecent zero: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no launches for limit 0, got %d", len(none))
	}
}

func TestFrecencyScores(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordLaunch(ctx, &Launch{ID: "a", Name: "A"}); err != nil {
		t.Fatalf("RecordLaunch: %v", err)
	}
	if err := store.RecordLaunch(ctx, &Launch{ID: "b", Name: "B"}); err != nil {
		t.Fatalf("RecordLaunch: %v", err)
	}
	if err := store.RecordLaunch(ctx, &Launch{ID: "b", Name: "B"}); err != nil {
		t.Fatalf("RecordLaunch: %v", err)
	}

	scores, err := store.FrecencyScores(ctx)
	if err != nil {
		t.Fatalf("FrecencyScores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores["b"] <= scores["a"] {
		t.Errorf("expected b (count 2) to outscore a (count 1): %v", scores)
	}
}

func TestRemoveAndClearLaunches(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.RecordLaunch(ctx, &Launch{ID: id, Name: id}); err != nil {
			t.Fatalf("RecordLaunch %s: %v", id, err)
		}
	}

	removed, err := store.RemoveLaunch(ctx, "b")
	if err != nil {
		t.Fatalf("RemoveLaunch: %v", err)
	}
	if !removed {
		t.Error("expected removal of existing row")
	}
	removed, err = store.RemoveLaunch(ctx, "missing")
	if err != nil {
		t.Fatalf("RemoveLaunch missing: %v", err)
	}
	if removed {
		t.Error("expected no removal for missing id")
	}

	n, err := store.ClearLaunches(ctx)
	if err != nil {
		t.Fatalf("ClearLaunches: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows cleared, got %d", n)
	}

	count, err := store.LaunchCount(ctx)
	if err != nil {
		t.Fatalf("LaunchCount: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty ledger, got %d", count)
	}
}
