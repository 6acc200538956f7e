package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/offpath/internal/db"
)

func TestMemoryStore_GetSet(t *testing.T) {
	m, err := NewMemoryStore(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if _, err := m.Get(ctx, "a"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	_ = m.Set(ctx, "a", []byte{1})
	got, err := m.Get(ctx, "a")
	if err != nil || len(got) != 1 {
		t.Fatalf("Get(a) = %v, %v", got, err)
	}
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	m, _ := NewMemoryStore(2)
	ctx := context.Background()

	_ = m.Set(ctx, "a", []byte{1})
	_ = m.Set(ctx, "b", []byte{2})
	_, _ = m.Get(ctx, "a") // a is now most recent
	_ = m.Set(ctx, "c", []byte{3})

	if _, err := m.Get(ctx, "b"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Error("expected b to be evicted")
	}
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Error("expected a to survive")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d", m.Len())
	}
}

func TestNewMemoryStore_DefaultSize(t *testing.T) {
	m, err := NewMemoryStore(0)
	if err != nil || m == nil {
		t.Fatalf("NewMemoryStore(0) = %v, %v", m, err)
	}
}
