package embcache

import (
	"context"
	"sync"

	"github.com/kailas-cloud/offpath/internal/db"
	"github.com/kailas-cloud/offpath/internal/domain"
)

// lengthEmbedder returns [len(text), first byte] so tests can tell which text produced a vector.
type lengthEmbedder struct {
	err        error
	tokens     int
	calls      int
	batchCalls int
	seen       []string
}

func vectorFor(text string) []float32 {
	v := []float32{float32(len(text)), 0}
	if text != "" {
		v[1] = float32(text[0])
	}
	return v
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	e.seen = append(e.seen, text)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: vectorFor(text), PromptTokens: e.tokens, TotalTokens: e.tokens}, nil
}

func (e *lengthEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.batchCalls++
	e.seen = append(e.seen, texts...)
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = vectorFor(t)
	}
	out.PromptTokens = e.tokens * len(texts)
	out.TotalTokens = e.tokens * len(texts)
	return out, nil
}

// mapStore is an in-memory KV store with injectable failures.
type mapStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	gets   int
	sets   int
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mapStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}
