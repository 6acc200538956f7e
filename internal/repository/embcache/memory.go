package embcache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/offpath/internal/db"
)

// DefaultMemorySize is the default number of cached embeddings.
// At 768 dimensions * 4 bytes that is about 3MB per 1000 entries.
const DefaultMemorySize = 1000

// MemoryStore is an in-process LRU backend for CachedEmbedder, used when no Redis is configured.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore creates an LRU store holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err //nolint:wrapcheck // only fails on a non-positive size
	}
	return &MemoryStore{cache: cache}, nil
}

// Get returns the cached bytes or db.ErrKeyNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

// Set stores value, evicting the least recently used entry when full.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.cache.Add(key, value)
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryStore) Len() int { return m.cache.Len() }
