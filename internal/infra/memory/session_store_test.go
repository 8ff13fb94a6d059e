package memory

import (
	"testing"

	"ai-ops-scorecard/internal/app"
	"ai-ops-scorecard/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	create := func() *app.Session {
		return app.NewSession("s-1", domain.DefaultCatalog(), NewProgressStore())
	}

	session, created := store.GetOrCreate("s-1", create)
	if session == nil || !created {
		t.Fatalf("expected new session")
	}
	again, created := store.GetOrCreate("s-1", create)
	if created || again != session {
		t.Fatalf("expected existing session to be reused")
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
