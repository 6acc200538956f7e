// Package chi is the HTTP transport: search, health, reindex and metrics routes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/offpath/internal/corpus"
	"github.com/kailas-cloud/offpath/internal/domain"
	"github.com/kailas-cloud/offpath/internal/domain/search/mode"
	"github.com/kailas-cloud/offpath/internal/domain/search/request"
	"github.com/kailas-cloud/offpath/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/offpath/internal/logger"
	healthuc "github.com/kailas-cloud/offpath/internal/usecase/health"
	"github.com/kailas-cloud/offpath/internal/version"
)

// maxBodyBytes caps POST /search bodies.
const maxBodyBytes = 64 << 10

// Searcher runs a ranked search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Reindexer drops and rebuilds the indexes.
type Reindexer interface {
	Invalidate()
	Warm(ctx context.Context, withVector bool) error
	State() corpus.State
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	search        Searcher
	health        HealthChecker
	indexes       Reindexer
	vectorEnabled bool
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. vectorEnabled controls whether a warming reindex also builds the vector index.
func NewServer(
	search Searcher,
	health HealthChecker,
	indexes Reindexer,
	vectorEnabled bool,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:        search,
		health:        health,
		indexes:       indexes,
		vectorEnabled: vectorEnabled,
		metrics:       promhttp.Handler(),
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeInvalidQuery),
		sentinelHandler(domain.ErrEmbedderNotConfigured,
			http.StatusNotImplemented, ErrorResponseCodeEmbedderNotConfigured),
		sentinelHandler(domain.ErrDimensionMismatch,
			http.StatusInternalServerError, ErrorResponseCodeDimensionMismatch),
		sentinelHandler(domain.ErrCollaboratorUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeCollaboratorDown),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusServiceUnavailable, ErrorResponseCodeEmptyCorpus),
		sentinelHandler(domain.ErrVectorsMisaligned, http.StatusServiceUnavailable, ErrorResponseCodeCorpusInvalid),
		sentinelHandler(domain.ErrDuplicateDocument, http.StatusServiceUnavailable, ErrorResponseCodeCorpusInvalid),
	}
	return s
}

// WithMetricsHandler replaces the default promhttp handler (e.g. for a custom registry).
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metrics = h
	return s
}

// SearchPosts handles POST /search.
func (s *Server) SearchPosts(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Filters.MinConfidence < 0 || body.Filters.MinConfidence > 1 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidQuery, "min_confidence must be within [0, 1]")
		return
	}

	k := 0
	if body.Retrieval.K != nil {
		k = *body.Retrieval.K
	}
	s.runSearch(w, r, body.Query, body.Retrieval.Model, k, body.Filters)
}

// QueryPosts handles GET /search.
func (s *Server) QueryPosts(w http.ResponseWriter, r *http.Request, params QueryPostsParams) {
	var model string
	if params.Mode != nil {
		model = *params.Mode
	}
	k := 0
	if params.K != nil {
		k = *params.K
	}
	s.runSearch(w, r, params.Q, model, k, SearchFilters{})
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query, model string, k int, filters SearchFilters) {
	m, err := mode.Parse(model)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	req, err := request.New(query, m, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx := logpkg.With(r.Context(), zap.String("retrieval_model", model))
	results, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	effectiveK := req.K()
	writeJSON(w, http.StatusOK, SearchResponse{
		Query: query,
		Params: SearchParams{
			Filters:   filters,
			Retrieval: SearchRetrieval{Model: model, K: &effectiveK},
			ModelUsed: string(m),
		},
		Results: presentResults(results, filters.MinConfidence),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
		Index:   indexState(report.Index),
	})
}

// Reindex handles POST /admin/reindex. With warm=true the indexes are rebuilt before responding.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request, params ReindexParams) {
	s.indexes.Invalidate()
	warm := params.Warm != nil && *params.Warm

	if warm {
		if err := s.indexes.Warm(r.Context(), s.vectorEnabled); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	st := s.indexes.State()
	s.logger.Info("Indexes invalidated", zap.Uint64("generation", st.Generation), zap.Bool("warm", warm))
	writeJSON(w, http.StatusAccepted, ReindexResponse{Generation: st.Generation, Warmed: warm})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func indexState(st corpus.State) *IndexState {
	out := &IndexState{
		Generation:   st.Generation,
		Documents:    st.Documents,
		LexicalBuilt: st.LexicalBuilt,
		VectorBuilt:  st.VectorBuilt,
		VectorDim:    st.VectorDim,
	}
	if !st.LastBuildTime.IsZero() {
		ts := st.LastBuildTime.UTC().Format(time.RFC3339)
		out.LastBuildTime = &ts
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrEmbedderNotConfigured,
		domain.ErrDimensionMismatch,
		domain.ErrCollaboratorUnavailable,
		domain.ErrEmptyCorpus,
		domain.ErrVectorsMisaligned,
		domain.ErrDuplicateDocument,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
