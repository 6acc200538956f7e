// Package app builds the runtime graph shared by the server, the ingest CLI and the SDK:
// document store, embedder chain and index cache.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/offpath/internal/config"
	"github.com/kailas-cloud/offpath/internal/corpus"
	dbRedis "github.com/kailas-cloud/offpath/internal/db/redis"
	"github.com/kailas-cloud/offpath/internal/domain"
	"github.com/kailas-cloud/offpath/internal/index/bm25"
	"github.com/kailas-cloud/offpath/internal/index/vector"
	"github.com/kailas-cloud/offpath/internal/metrics"
	blogredis "github.com/kailas-cloud/offpath/internal/repository/blog/redis"
	blogsqlite "github.com/kailas-cloud/offpath/internal/repository/blog/sqlite"
	"github.com/kailas-cloud/offpath/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/offpath/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/offpath/internal/usecase/embedding"
	"github.com/kailas-cloud/offpath/internal/usecase/ingest"
)

// Store is a document store usable for both reads and ingestion.
type Store interface {
	corpus.Store
	ingest.Store
	Ping(ctx context.Context) error
}

// KV backs the embedding cache.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Stores is an opened document store plus the cache backend that goes with it.
type Stores struct {
	Docs         Store
	Cache        KV
	CacheBackend string
	close        func()
}

// Close releases the underlying connections.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the configured driver. SQLite pairs with an in-process LRU
// embedding cache; Redis and Valkey keep embeddings in the same server.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		if err := ensureDir(cfg.Store.SQLitePath); err != nil {
			return nil, err
		}
		repo, err := blogsqlite.Open(ctx, cfg.Store.SQLitePath, cfg.Embedding.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		lru, err := embcache.NewMemoryStore(cfg.Embedding.CacheSize)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		return &Stores{Docs: repo, Cache: lru, CacheBackend: "lru", close: repo.Close}, nil

	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Username: cfg.Store.Username,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", cfg.Store.Driver, err)
		}
		timeout := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Store.Driver, err)
		}
		return &Stores{
			Docs:         blogredis.New(store),
			Cache:        store,
			CacheBackend: cfg.Store.Driver,
			close:        store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create sqlite directory: %w", err)
	}
	return nil
}

// Embedders are the query and document sides of one model. Both share a rate limiter and cache.
type Embedders struct {
	Query    domain.Embedder
	Document domain.Embedder
}

// HealthCheck probes the provider through the query chain.
func (e *Embedders) HealthCheck(ctx context.Context) error {
	if hc, ok := e.Query.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// BuildEmbedders returns nil when embedding is disabled.
func BuildEmbedders(cfg *config.EmbeddingConfig, stores *Stores, logger *zap.Logger) *Embedders {
	if !cfg.Enabled {
		return nil
	}
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	// A typed nil *rate.Limiter inside the interface would not compare equal to nil.
	var limiter embeddinguc.Limiter
	if l := embeddinguc.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst); l != nil {
		limiter = l
	}

	return &Embedders{
		Query:    Chain(base, cfg, cfg.QueryInstruction, stores, limiter, logger),
		Document: Chain(base, cfg, cfg.DocumentInstruction, stores, limiter, logger),
	}
}

// Chain assembles provider -> throttled -> cached -> instruction. The instruction is
// outermost so it is part of the cache key, and cache hits never wait on the limiter.
// stores and limiter may be nil.
func Chain(
	base domain.Embedder,
	cfg *config.EmbeddingConfig,
	instruction string,
	stores *Stores,
	limiter embeddinguc.Limiter,
	logger *zap.Logger,
) domain.Embedder {
	var e domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, limiter, logger)
	if stores != nil && stores.Cache != nil {
		e = embcache.New(e, stores.Cache, stores.CacheBackend, cfg.Model, metrics.EmbeddingCacheTotal, logger).
			WithTTL(time.Duration(cfg.CacheTTLSec) * time.Second)
	}
	if instruction != "" {
		e = domain.NewInstructionEmbedder(e, instruction)
	}
	return e
}

// NewIndexCache creates the lazily built index cache. docs may be nil when embedding is disabled;
// vector builds then rely on stored vectors only.
func NewIndexCache(store corpus.Store, cfg *config.Config, docs domain.Embedder, logger *zap.Logger) *corpus.Cache {
	return corpus.New(store, corpus.Options{
		BM25: bm25.Params{K1: cfg.Index.BM25K1, B: cfg.Index.BM25B},
		Vector: vector.Options{
			Dim:              cfg.Embedding.Dimensions,
			ApproximateAbove: cfg.Index.ApproximateAbove,
			HNSW:             vector.HNSWParams{M: cfg.Index.HNSWM, EfSearch: cfg.Index.HNSWEfSearch},
		},
		Embedder:       docs,
		EmbedBatchSize: cfg.Index.EmbedBatchSize,
		Logger:         logger,
	})
}
