// Package corpus builds the lexical and vector indexes from the document store once per
// generation and serves the same immutable snapshots to every concurrent caller.
package corpus

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/offpath/internal/domain"
	"github.com/kailas-cloud/offpath/internal/domain/blog"
	"github.com/kailas-cloud/offpath/internal/index/bm25"
	"github.com/kailas-cloud/offpath/internal/index/vector"
	"github.com/kailas-cloud/offpath/internal/metrics"
)

// Index names used in singleflight keys, logs and metrics.
const (
	IndexLexical = "lexical"
	IndexVector  = "vector"
	indexCorpus  = "corpus"
)

// DefaultEmbedBatchSize is the number of posts embedded per request when vectors are missing.
const DefaultEmbedBatchSize = 64

// Lexical is a built BM25 index together with the corpus it was built from.
type Lexical struct {
	Corpus     *blog.Corpus
	Index      *bm25.Index
	Generation uint64
}

// Vector is a built nearest-neighbor index together with the corpus it was built from.
type Vector struct {
	Corpus     *blog.Corpus
	Index      vector.Index
	Generation uint64
	// Embedded counts posts whose vectors were computed during the build.
	Embedded int
}

// State is a point-in-time view of the cache, used by health checks.
type State struct {
	Generation    uint64
	CorpusLoaded  bool
	LexicalBuilt  bool
	VectorBuilt   bool
	Documents     int
	VectorDim     int
	LastBuildErr  string
	LastBuildTime time.Time
}

// Options configure index builds.
type Options struct {
	BM25   bm25.Params
	Vector vector.Options
	// Embedder computes vectors for posts that have none stored. Nil means missing vectors fail the build.
	Embedder       domain.Embedder
	EmbedBatchSize int
	Logger         *zap.Logger
}

// Cache lazily builds and memoizes the indexes. Built state is dropped only by Invalidate.
type Cache struct {
	store Store
	opts  Options
	log   *zap.Logger
	group singleflight.Group

	mu        sync.Mutex
	gen       uint64
	corpus    *blog.Corpus
	lexical   *Lexical
	vector    *Vector
	lastErr   error
	lastBuild time.Time
}

// New creates a cache over store. Nothing is loaded until the first Lexical or Vector call.
func New(store Store, opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if opts.BM25 == (bm25.Params{}) {
		opts.BM25 = bm25.DefaultParams()
	}
	return &Cache{store: store, opts: opts, log: opts.Logger}
}

// Lexical returns the BM25 index, building it on first use in the current generation.
func (c *Cache) Lexical(ctx context.Context) (*Lexical, error) {
	c.mu.Lock()
	if l := c.lexical; l != nil {
		c.mu.Unlock()
		return l, nil
	}
	gen := c.gen
	c.mu.Unlock()

	return await(ctx, c, IndexLexical, gen, func(bctx context.Context) (*Lexical, error) {
		return c.buildLexical(bctx, gen)
	})
}

// Vector returns the nearest-neighbor index, building it on first use in the current generation.
func (c *Cache) Vector(ctx context.Context) (*Vector, error) {
	c.mu.Lock()
	if v := c.vector; v != nil {
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gen
	c.mu.Unlock()

	return await(ctx, c, IndexVector, gen, func(bctx context.Context) (*Vector, error) {
		return c.buildVector(bctx, gen)
	})
}

// Invalidate drops every built index and the corpus. The next Lexical or Vector call rebuilds.
// Builds in flight complete for their own callers but are not stored.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.corpus = nil
	c.lexical = nil
	c.vector = nil
	gen := c.gen
	c.mu.Unlock()

	c.log.Info("Corpus cache invalidated", zap.Uint64("generation", gen))
}

// Warm builds the lexical index and, when withVector is set, the vector index concurrently.
func (c *Cache) Warm(ctx context.Context, withVector bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := c.Lexical(gctx)
		return err
	})
	if withVector {
		g.Go(func() error {
			_, err := c.Vector(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warm indexes: %w", err)
	}
	return nil
}

// State reports what is currently built.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Generation:    c.gen,
		CorpusLoaded:  c.corpus != nil,
		LexicalBuilt:  c.lexical != nil,
		VectorBuilt:   c.vector != nil,
		LastBuildTime: c.lastBuild,
	}
	if c.corpus != nil {
		st.Documents = c.corpus.Len()
	}
	if c.vector != nil {
		st.VectorDim = c.vector.Index.Dim()
	}
	if c.lastErr != nil {
		st.LastBuildErr = c.lastErr.Error()
	}
	return st
}

// await joins the in-flight build for (name, gen) or starts one. The build runs detached from
// the caller's cancellation so an abandoned wait never fails the other callers.
func await[T any](
	ctx context.Context, c *Cache, name string, gen uint64,
	build func(context.Context) (T, error),
) (T, error) {
	var zero T
	key := name + "/" + strconv.FormatUint(gen, 10)
	bctx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (any, error) {
		return build(bctx)
	})

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("wait for %s index: %w", name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func (c *Cache) buildLexical(ctx context.Context, gen uint64) (*Lexical, error) {
	// Another caller may have stored it between our check and joining the flight.
	c.mu.Lock()
	if l := c.lexical; l != nil && l.Generation == gen {
		c.mu.Unlock()
		return l, nil
	}
	c.mu.Unlock()

	start := time.Now()
	built, err := func() (*Lexical, error) {
		corp, err := c.loadCorpus(ctx, gen)
		if err != nil {
			return nil, err
		}
		idx, err := bm25.Build(corp.SearchTexts(), c.opts.BM25)
		if err != nil {
			return nil, fmt.Errorf("build bm25 index: %w", err)
		}
		return &Lexical{Corpus: corp, Index: idx, Generation: gen}, nil
	}()
	c.finish(IndexLexical, gen, start, err)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.lexical = built
	}
	c.mu.Unlock()

	st := built.Index.Stats()
	c.log.Info("Lexical index built",
		zap.Uint64("generation", gen),
		zap.Int("documents", st.Documents),
		zap.Int("vocabulary", st.Vocabulary),
		zap.Float64("avg_doc_length", st.AvgDocLength),
		zap.Duration("duration", time.Since(start)),
	)
	return built, nil
}

func (c *Cache) buildVector(ctx context.Context, gen uint64) (*Vector, error) {
	c.mu.Lock()
	if v := c.vector; v != nil && v.Generation == gen {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	start := time.Now()
	built, err := c.assembleVector(ctx, gen)
	c.finish(IndexVector, gen, start, err)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.vector = built
	}
	c.mu.Unlock()

	c.log.Info("Vector index built",
		zap.Uint64("generation", gen),
		zap.Int("documents", built.Index.Len()),
		zap.Int("dimensions", built.Index.Dim()),
		zap.Int("embedded_on_build", built.Embedded),
		zap.Duration("duration", time.Since(start)),
	)
	return built, nil
}

// assembleVector loads the corpus and the stored vectors concurrently, aligns vectors to
// corpus positions by post id and builds the index.
func (c *Cache) assembleVector(ctx context.Context, gen uint64) (*Vector, error) {
	var (
		corp    *blog.Corpus
		ids     []int64
		vectors [][]float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		corp, err = c.loadCorpus(gctx, gen)
		return err
	})
	g.Go(func() error {
		var err error
		ids, vectors, err = c.store.LoadPrecomputedVectors(gctx)
		if err != nil {
			return domain.NewCollaboratorError("document store", fmt.Errorf("load vectors: %w", err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // errors are wrapped by the goroutines above
	}

	aligned, missing, err := align(corp, ids, vectors)
	if err != nil {
		return nil, err
	}
	embedded, err := c.fillMissing(ctx, corp, aligned, missing)
	if err != nil {
		return nil, err
	}

	idx, err := vector.New(aligned, c.opts.Vector)
	if err != nil {
		return nil, fmt.Errorf("build vector index: %w", err)
	}
	return &Vector{Corpus: corp, Index: idx, Generation: gen, Embedded: embedded}, nil
}

// loadCorpus returns the corpus of generation gen, loading it at most once per generation.
func (c *Cache) loadCorpus(ctx context.Context, gen uint64) (*blog.Corpus, error) {
	c.mu.Lock()
	if c.corpus != nil && c.gen == gen {
		corp := c.corpus
		c.mu.Unlock()
		return corp, nil
	}
	c.mu.Unlock()

	// The corpus flight is shared by both index builds, so no single build's context may cancel it.
	lctx := context.WithoutCancel(ctx)
	key := indexCorpus + "/" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		posts, err := c.store.LoadAllDocuments(lctx)
		if err != nil {
			return nil, domain.NewCollaboratorError("document store", fmt.Errorf("load documents: %w", err))
		}
		if len(posts) == 0 {
			return nil, domain.ErrEmptyCorpus
		}
		corp, err := blog.NewCorpus(posts)
		if err != nil {
			return nil, fmt.Errorf("assemble corpus: %w", err)
		}

		c.mu.Lock()
		if c.gen == gen {
			c.corpus = corp
		}
		c.mu.Unlock()
		metrics.IndexCorpusDocuments.Set(float64(corp.Len()))
		return corp, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the flight
	}
	corp, _ := v.(*blog.Corpus)
	return corp, nil
}

// align places vectors at the corpus position of their post id. It returns the positions
// that have no stored vector. Vectors of posts outside the corpus are ignored.
func align(corp *blog.Corpus, ids []int64, vectors [][]float32) ([][]float32, []int, error) {
	if len(ids) != len(vectors) {
		return nil, nil, fmt.Errorf("%d ids for %d vectors: %w", len(ids), len(vectors), domain.ErrVectorsMisaligned)
	}
	aligned := make([][]float32, corp.Len())
	for i, id := range ids {
		if pos, ok := corp.Position(id); ok {
			aligned[pos] = vectors[i]
		}
	}
	var missing []int
	for pos, v := range aligned {
		if v == nil {
			missing = append(missing, pos)
		}
	}
	return aligned, missing, nil
}

// fillMissing embeds the search text of posts without a stored vector.
func (c *Cache) fillMissing(ctx context.Context, corp *blog.Corpus, aligned [][]float32, missing []int) (int, error) {
	if len(missing) == 0 {
		return 0, nil
	}
	if c.opts.Embedder == nil {
		return 0, fmt.Errorf("%d of %d posts have no vector and no document embedder is configured: %w",
			len(missing), corp.Len(), domain.ErrVectorsMisaligned)
	}

	c.log.Info("Embedding posts without stored vectors", zap.Int("count", len(missing)))
	size := c.opts.EmbedBatchSize
	for offset := 0; offset < len(missing); offset += size {
		chunk := missing[offset:min(offset+size, len(missing))]
		texts := make([]string, len(chunk))
		for i, pos := range chunk {
			p := corp.At(pos)
			texts[i] = p.SearchText()
		}

		res, err := domain.EmbedBatch(ctx, c.opts.Embedder, texts)
		if err != nil {
			return 0, domain.NewCollaboratorError("embedder", fmt.Errorf("embed corpus: %w", err))
		}
		if err := res.Check(len(chunk)); err != nil {
			return 0, fmt.Errorf("embed corpus: %w", err)
		}
		for i, pos := range chunk {
			aligned[pos] = res.Embeddings[i]
		}
	}
	return len(missing), nil
}

// finish records build outcome metrics and the last error for State.
func (c *Cache) finish(name string, gen uint64, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		c.log.Error("Index build failed",
			zap.String("index", name),
			zap.Uint64("generation", gen),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	metrics.IndexBuildsTotal.WithLabelValues(name, status).Inc()
	metrics.IndexBuildDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	// A build of an invalidated generation says nothing about the current one.
	if c.gen != gen {
		return
	}
	c.lastErr = err
	c.lastBuild = time.Now()
}
