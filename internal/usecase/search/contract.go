package search

import (
	"context"

	"github.com/kailas-cloud/offpath/internal/corpus"
	"github.com/kailas-cloud/offpath/internal/domain"
)

// Indexes hands out built index snapshots. Implemented by *corpus.Cache.
type Indexes interface {
	Lexical(ctx context.Context) (*corpus.Lexical, error)
	Vector(ctx context.Context) (*corpus.Vector, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
