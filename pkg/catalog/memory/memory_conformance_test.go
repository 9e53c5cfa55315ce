package memory_test

import (
	"testing"

	"github.com/marmos91/artifactguard/pkg/catalog"
	"github.com/marmos91/artifactguard/pkg/catalog/catalogtest"
	"github.com/marmos91/artifactguard/pkg/catalog/memory"
)

func TestConformance(t *testing.T) {
	catalogtest.RunConformanceSuite(t, func(t *testing.T) catalog.Store {
		store := memory.New()
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestClosedStore(t *testing.T) {
	store := memory.New()
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := store.Healthcheck(t.Context()); err != catalog.ErrClosed {
		t.Errorf("Healthcheck() after Close = %v, want ErrClosed", err)
	}
}
