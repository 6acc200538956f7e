package ingest

import (
	"context"

	domblog "github.com/kailas-cloud/offpath/internal/domain/blog"
)

// Store is the write side of a document store.
type Store interface {
	SavePosts(ctx context.Context, posts []domblog.Post) error
	SaveVectors(ctx context.Context, ids []int64, vectors [][]float32) error
	LoadPrecomputedVectors(ctx context.Context) (ids []int64, vectors [][]float32, err error)
}
