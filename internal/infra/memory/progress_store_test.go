package memory

import (
	"context"
	"errors"
	"testing"

	"ai-ops-scorecard/internal/domain"
)

func TestProgressStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "k", `{"currentQuestion":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || got != `{"currentQuestion":1}` {
		t.Fatalf("unexpected record %q (%v)", got, err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected removal, got %v", err)
	}
}
