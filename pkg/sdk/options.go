package offpath

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "sqlite", "valkey" or "redis"
	sqlitePath string
	addrs      []string
	password   string

	embedder         Embedder
	model            string
	dimensions       int
	docInstruction   string
	queryInstruction string
	cacheSize        int

	bm25K1           float64
	bm25B            float64
	approximateAbove int
	previewLength    int

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite opens (or creates) a SQLite database at path. Use ":memory:" for a throwaway store.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding provider and the model it serves.
// Stored vectors are looked up under model; dim is the expected vector size (0 accepts any).
// Required for vector search; BM25 works without it.
func WithEmbedder(e Embedder, model string, dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.model = model
		c.dimensions = dim
	})
}

// WithInstructions sets the task prefixes prepended to documents and queries before embedding.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docInstruction = document
		c.queryInstruction = query
	})
}

// WithEmbeddingCache sets the in-process LRU size used with SQLite. Default: 1000.
func WithEmbeddingCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
	})
}

// WithBM25 overrides the BM25 parameters. Defaults: k1=1.5, b=0.75.
func WithBM25(k1, b float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.bm25K1 = k1
		c.bm25B = b
	})
}

// WithApproximateAbove switches vector search to an HNSW graph when the corpus has
// more than n vectors. Default: 0 (always exact).
func WithApproximateAbove(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.approximateAbove = n
	})
}

// WithPreviewLength sets the number of content characters in result previews. Default: 300.
func WithPreviewLength(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.previewLength = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithZap routes the engine's internal logs (index builds, store, embedder) to l.
// They are discarded by default.
func WithZap(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations) and the engine
// collectors on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
