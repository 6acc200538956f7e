package health

import (
	"context"

	"github.com/kailas-cloud/offpath/internal/corpus"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckPending indicates an index that has not been built yet. Indexes build lazily, so this is healthy.
	CheckPending CheckResult = "pending"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Index  corpus.State
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	indexes   IndexStater
}

// New creates a Service. embedding and indexes can be nil.
func New(store StorePinger, embedding EmbeddingChecker, indexes IndexStater) *Service {
	return &Service{store: store, embedding: embedding, indexes: indexes}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["store"] = result(s.store.Ping(ctx))
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	var st corpus.State
	if s.indexes != nil {
		st = s.indexes.State()
		checks["lexical_index"] = indexResult(st.LexicalBuilt, st.LastBuildErr)
		if s.embedding != nil {
			checks["vector_index"] = indexResult(st.VectorBuilt, st.LastBuildErr)
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Index: st}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}

// indexResult reports a failed last build as an error only while the index is still missing.
func indexResult(built bool, lastErr string) CheckResult {
	switch {
	case built:
		return CheckOK
	case lastErr != "":
		return CheckError
	default:
		return CheckPending
	}
}
