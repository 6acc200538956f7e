package offpath

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/offpath/internal/app"
	"github.com/kailas-cloud/offpath/internal/config"
	"github.com/kailas-cloud/offpath/internal/corpus"
	"github.com/kailas-cloud/offpath/internal/domain"
	"github.com/kailas-cloud/offpath/internal/domain/search/mode"
	"github.com/kailas-cloud/offpath/internal/domain/search/request"
	"github.com/kailas-cloud/offpath/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/offpath/internal/usecase/health"
	"github.com/kailas-cloud/offpath/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/offpath/internal/usecase/search"
)

const defaultReadinessTimeout = 10

// Internal interfaces, swapped for fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

type ingestUseCase interface {
	Run(ctx context.Context, sources []ingest.Source, embed, force bool) (ingest.Report, error)
}

type indexCache interface {
	Invalidate()
	Warm(ctx context.Context, withVector bool) error
	State() corpus.State
}

// Client is the offpath SDK entry point. It is safe for concurrent use.
type Client struct {
	stores    *app.Stores
	indexes   indexCache
	searchSvc searchUseCase
	ingestSvc ingestUseCase
	healthSvc healthUseCase
	vector    bool
	obs       *observer
}

// New opens the document store and wires the engine. Indexes are built on the first search.
// The provided context is used for connecting and the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("offpath: document store required (use WithSQLite, WithRedis or WithValkey)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	logger := cfg.zapLogger
	if logger == nil {
		logger = zap.NewNop()
	}

	engineCfg := cfg.engineConfig()
	stores, err := app.OpenStore(ctx, engineCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("offpath: %w", err)
	}
	return wireClient(stores, engineCfg, cfg, obs, logger), nil
}

// engineConfig maps SDK options onto the service configuration so both share defaults.
func (c *clientConfig) engineConfig() *config.Config {
	ec := &config.Config{
		Store: config.StoreConfig{
			Driver:           c.driver,
			SQLitePath:       c.sqlitePath,
			Addrs:            c.addrs,
			Password:         c.password,
			ReadinessTimeout: defaultReadinessTimeout,
		},
		Embedding: config.EmbeddingConfig{
			Enabled:             c.embedder != nil,
			Provider:            "sdk",
			Model:               c.model,
			DocumentInstruction: c.docInstruction,
			QueryInstruction:    c.queryInstruction,
			CacheSize:           c.cacheSize,
		},
		Index: config.IndexConfig{
			BM25K1:           c.bm25K1,
			BM25B:            c.bm25B,
			ApproximateAbove: c.approximateAbove,
		},
		Search: config.SearchConfig{PreviewLength: c.previewLength},
	}
	ec.ApplyDefaults()
	// Unlike the service, the SDK accepts whatever dimension the stored vectors have unless told otherwise.
	ec.Embedding.Dimensions = c.dimensions
	return ec
}

func wireClient(
	stores *app.Stores, ec *config.Config, cfg *clientConfig, obs *observer, logger *zap.Logger,
) *Client {
	var queryEmb, docEmb domain.Embedder
	var embCheck healthuc.EmbeddingChecker
	if cfg.embedder != nil {
		base := &embedderAdapter{inner: cfg.embedder}
		queryEmb = app.Chain(base, &ec.Embedding, ec.Embedding.QueryInstruction, stores, nil, logger)
		docEmb = app.Chain(base, &ec.Embedding, ec.Embedding.DocumentInstruction, stores, nil, logger)
		embCheck = &app.Embedders{Query: queryEmb, Document: docEmb}
	}

	indexes := app.NewIndexCache(stores.Docs, ec, docEmb, logger)
	return &Client{
		stores:    stores,
		indexes:   indexes,
		searchSvc: searchuc.New(indexes, queryEmb, searchuc.WithPreviewLength(ec.Search.PreviewLength)),
		ingestSvc: ingest.New(stores.Docs, docEmb, ingest.WithLogger(logger)),
		healthSvc: healthuc.New(stores.Docs, embCheck, indexes),
		vector:    cfg.embedder != nil,
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.stores != nil {
		c.stores.Close()
	}
}

// Search ranks posts for query with a single strategy. k <= 0 uses the default of 12; k is
// capped at 200. A blank query returns no results without touching the indexes.
func (c *Client) Search(ctx context.Context, query string, m Mode, k int) (results []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "mode", string(m), "results", len(results)) }()

	md, err := mode.Parse(string(m))
	if err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	if k < 0 {
		k = 0
	}
	req, err := request.New(query, md, k)
	if err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}

	found, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	results = make([]Result, len(found))
	for i := range found {
		results[i] = toResult(&found[i])
	}
	c.obs.searched(Mode(md), len(results))
	return results, nil
}

// Ingest loads a travel_blogs JSON dump into the store. With embed set, posts without a stored
// vector are embedded too. The indexes are invalidated so the next search sees the new posts.
func (c *Client) Ingest(ctx context.Context, r io.Reader, embed bool) (rep IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err, "saved", rep.Saved, "embedded", rep.Embedded) }()

	res, err := c.ingestSvc.Run(ctx, []ingest.Source{{Name: "reader", Reader: r}}, embed, false)
	rep = IngestReport(res)
	if res.Saved > 0 {
		c.indexes.Invalidate()
	}
	if err != nil {
		return rep, fmt.Errorf("ingest: %w", err)
	}
	return rep, nil
}

// Reindex drops the built indexes. The next search rebuilds them from the store.
func (c *Client) Reindex() {
	start := time.Now()
	c.indexes.Invalidate()
	c.obs.observe("reindex", start, nil)
}

// Warm builds the lexical index, and the vector index when an embedder is configured.
func (c *Client) Warm(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("warm", start, err) }()

	if err = c.indexes.Warm(ctx, c.vector); err != nil {
		return fmt.Errorf("warm: %w", err)
	}
	return nil
}

// State reports what is currently built.
func (c *Client) State() IndexState {
	return toIndexState(c.indexes.State())
}

func toIndexState(st corpus.State) IndexState {
	return IndexState{
		Generation:   st.Generation,
		LexicalBuilt: st.LexicalBuilt,
		VectorBuilt:  st.VectorBuilt,
		Documents:    st.Documents,
		VectorDim:    st.VectorDim,
		LastBuildErr: st.LastBuildErr,
	}
}

func toResult(r *result.Result) Result {
	p := r.Post()
	out := Result{
		Rank:        r.Rank(),
		ID:          p.ID(),
		Destination: p.Destination(),
		Country:     p.Country(),
		Title:       p.Title(),
		Description: p.Description(),
		Author:      p.Author(),
		PageURL:     p.PageURL(),
		BlogURL:     p.BlogURL(),
		Preview:     r.Preview(),
		Content:     p.Content(),
	}
	if coords, ok := p.Coordinates(); ok {
		lat, lon := coords.Latitude, coords.Longitude
		out.Lat, out.Lon = &lat, &lon
	}
	if s, ok := r.BM25Score(); ok {
		out.Score = s
	}
	if d, ok := r.Distance(); ok {
		out.Distance = d
	}
	return out
}
