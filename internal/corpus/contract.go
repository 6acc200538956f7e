package corpus

import (
	"context"

	"github.com/kailas-cloud/offpath/internal/domain/blog"
)

// Store is the document store the indexes are built from.
type Store interface {
	LoadAllDocuments(ctx context.Context) ([]blog.Post, error)
	// LoadPrecomputedVectors returns stored embeddings keyed by post id: ids[i] owns vectors[i].
	LoadPrecomputedVectors(ctx context.Context) (ids []int64, vectors [][]float32, err error)
}
