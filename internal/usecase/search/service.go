package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/offpath/internal/domain"
	"github.com/kailas-cloud/offpath/internal/domain/blog"
	"github.com/kailas-cloud/offpath/internal/domain/search/mode"
	"github.com/kailas-cloud/offpath/internal/domain/search/request"
	"github.com/kailas-cloud/offpath/internal/domain/search/result"
	"github.com/kailas-cloud/offpath/internal/index/bm25"
	"github.com/kailas-cloud/offpath/internal/logger"
	"github.com/kailas-cloud/offpath/internal/metrics"
)

// Service ranks posts for a query with exactly one strategy per call. Modes never fall back to each other.
type Service struct {
	indexes    Indexes
	embed      Embedder
	previewLen int
}

// Option configures the Service.
type Option func(*Service)

// WithPreviewLength overrides the number of content characters in result previews.
func WithPreviewLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.previewLen = n
		}
	}
}

// New creates a search service. embed may be nil, in which case vector searches fail.
func New(indexes Indexes, embed Embedder, opts ...Option) *Service {
	s := &Service{indexes: indexes, embed: embed, previewLen: blog.DefaultPreviewLength}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search returns up to req.K() ranked posts. A blank query returns an empty slice
// without building any index or calling the embedder.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if req.IsBlank() {
		return []result.Result{}, nil
	}

	start := time.Now()
	var (
		results []result.Result
		err     error
	)
	switch req.Mode() {
	case mode.Lexical:
		results, err = s.searchLexical(ctx, req)
	case mode.Vector:
		results, err = s.searchVector(ctx, req)
	default:
		err = fmt.Errorf("unsupported search mode %q: %w", req.Mode(), domain.ErrInvalidQuery)
	}
	s.observe(ctx, req, start, len(results), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// searchLexical returns no results for a query without word tokens. A query whose tokens are
// all out of vocabulary still ranks every post at score 0.
func (s *Service) searchLexical(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if len(bm25.Tokenize(req.Query())) == 0 {
		return []result.Result{}, nil
	}
	lex, err := s.indexes.Lexical(ctx)
	if err != nil {
		return nil, fmt.Errorf("lexical index: %w", err)
	}

	hits := lex.Index.Search(req.Query(), req.K())
	results := make([]result.Result, len(hits))
	for i, h := range hits {
		p := lex.Corpus.At(h.Doc)
		results[i] = result.NewLexical(p, i+1, h.Score, p.Preview(s.previewLen))
	}
	return results, nil
}

func (s *Service) searchVector(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if s.embed == nil {
		return nil, domain.ErrEmbedderNotConfigured
	}
	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, domain.NewCollaboratorError("embedder", fmt.Errorf("vectorize query: %w", err))
	}

	vec, err := s.indexes.Vector(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}

	neighbors, err := vec.Index.Search(emb.Embedding, req.K())
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	results := make([]result.Result, len(neighbors))
	for i, n := range neighbors {
		p := vec.Corpus.At(n.Doc)
		results[i] = result.NewVector(p, i+1, n.Distance, p.Preview(s.previewLen))
	}
	return results, nil
}

func (s *Service) observe(ctx context.Context, req *request.Request, start time.Time, n int, err error) {
	m := string(req.Mode())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(m, status).Inc()
	metrics.SearchDuration.WithLabelValues(m).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.SearchResults.WithLabelValues(m).Observe(float64(n))
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("mode", m),
		zap.Int("k", req.K()),
		zap.Int("results", n),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
}
