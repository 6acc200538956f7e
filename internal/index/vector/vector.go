// Package vector implements nearest-neighbor search over fixed-dimension embeddings.
package vector

import (
	"github.com/kailas-cloud/offpath/internal/domain"
)

// Neighbor is a document position and its squared L2 distance to the query.
type Neighbor struct {
	Doc      int
	Distance float64
}

// Index is a read-only nearest-neighbor index. Implementations are safe for concurrent Search.
// Search returns min(k, Len()) neighbors ordered by distance, ties by ascending position;
// approximate implementations may miss true neighbors but not shorten the list.
type Index interface {
	Search(query []float32, k int) ([]Neighbor, error)
	Len() int
	Dim() int
}

// Options selects the index implementation.
type Options struct {
	// Dim is the expected dimension; 0 accepts whatever the first vector has.
	Dim int
	// ApproximateAbove switches to an HNSW graph when the corpus has more vectors. 0 disables it.
	ApproximateAbove int
	HNSW             HNSWParams
}

// New returns an exact flat index, or an HNSW index when the corpus exceeds ApproximateAbove.
func New(vectors [][]float32, opts Options) (Index, error) {
	if opts.ApproximateAbove > 0 && len(vectors) > opts.ApproximateAbove {
		return NewHNSW(vectors, opts.Dim, opts.HNSW)
	}
	return NewFlat(vectors, opts.Dim)
}

// SquaredL2 returns the squared Euclidean distance. a and b must have equal length.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// validate checks that every vector has the same dimension, equal to dim when dim > 0.
func validate(vectors [][]float32, dim int) (int, error) {
	if len(vectors) == 0 {
		return dim, nil
	}
	if dim <= 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return 0, domain.NewDimensionMismatch(dim, len(v))
		}
	}
	return dim, nil
}

func less(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Doc < b.Doc
}
