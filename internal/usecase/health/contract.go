package health

import (
	"context"

	"github.com/kailas-cloud/offpath/internal/corpus"
)

// StorePinger checks document store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexStater reports the corpus cache state.
type IndexStater interface {
	State() corpus.State
}
