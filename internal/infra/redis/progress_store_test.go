package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-ops-scorecard/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(newClient(mr), 48*time.Hour)

	if _, err := store.Get(ctx, "ai-ops-scorecard-progress:c1"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "ai-ops-scorecard-progress:c1", `{"currentQuestion":4}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("ai-ops-scorecard-progress:c1"); ttl != 48*time.Hour {
		t.Fatalf("expected ttl applied, got %s", ttl)
	}

	got, err := store.Get(ctx, "ai-ops-scorecard-progress:c1")
	if err != nil || got != `{"currentQuestion":4}` {
		t.Fatalf("unexpected record %q (%v)", got, err)
	}

	if err := store.Remove(ctx, "ai-ops-scorecard-progress:c1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists("ai-ops-scorecard-progress:c1") {
		t.Fatalf("expected key removed")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
