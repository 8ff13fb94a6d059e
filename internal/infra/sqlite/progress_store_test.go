package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ai-ops-scorecard/internal/domain"
)

func openTestStore(t *testing.T) *ProgressStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProgressStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "k", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || got != "second" {
		t.Fatalf("unexpected record %q (%v)", got, err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected removal, got %v", err)
	}
}

func TestProgressStorePrune(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "old", "x")
	now = now.Add(72 * time.Hour)
	_ = store.Set(ctx, "fresh", "y")

	removed, err := store.Prune(ctx, 48*time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned record, got %d", removed)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Fatalf("expected fresh record kept: %v", err)
	}
}
