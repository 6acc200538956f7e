package vector

import (
	"sort"

	"github.com/kailas-cloud/offpath/internal/domain"
)

// Flat is an exact brute-force index: every query is compared against every stored vector.
type Flat struct {
	vectors [][]float32
	dim     int
}

// NewFlat validates dimensions and copies nothing: callers must not mutate vectors afterwards.
func NewFlat(vectors [][]float32, dim int) (*Flat, error) {
	d, err := validate(vectors, dim)
	if err != nil {
		return nil, err
	}
	return &Flat{vectors: vectors, dim: d}, nil
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Dim returns the vector dimension (0 for an empty index built without a dimension).
func (f *Flat) Dim() int { return f.dim }

// Search returns the min(k, N) closest vectors by squared L2, ascending, ties by ascending position.
func (f *Flat) Search(query []float32, k int) ([]Neighbor, error) {
	if len(f.vectors) == 0 || k <= 0 {
		return []Neighbor{}, nil
	}
	if len(query) != f.dim {
		return nil, domain.NewDimensionMismatch(f.dim, len(query))
	}

	all := make([]Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		all[i] = Neighbor{Doc: i, Distance: SquaredL2(query, v)}
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })

	if k < len(all) {
		all = all[:k]
	}
	return all, nil
}
