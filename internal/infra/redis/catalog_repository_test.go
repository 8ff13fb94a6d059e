package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{CatalogLoader: memory.NewDefaultCatalogLoader()}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute)

	catalog, err := repo.GetCatalog(context.Background(), domain.DefaultCatalogID)
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("catalog:" + domain.DefaultCatalogID) {
		t.Fatalf("expected catalog cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, _ := repo.GetCatalog(context.Background(), domain.DefaultCatalogID)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[14].Prompt != catalog.Questions[14].Prompt {
		t.Fatalf("expected cached catalog to round-trip")
	}

	if err := repo.Invalidate(context.Background(), domain.DefaultCatalogID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetCatalog(context.Background(), domain.DefaultCatalogID)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestCatalogRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("catalog:"+domain.DefaultCatalogID, "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader := &countingLoader{CatalogLoader: memory.NewDefaultCatalogLoader()}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute)

	if _, err := repo.GetCatalog(context.Background(), domain.DefaultCatalogID); err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected corrupt cache to fall through to loader")
	}
}

func TestCatalogRepositoryPropagatesLoaderErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewCatalogRepository(newClient(mr), memory.NewDefaultCatalogLoader(), time.Minute)
	if _, err := repo.GetCatalog(context.Background(), "unknown"); !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	memory.CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx, catalogID)
}
