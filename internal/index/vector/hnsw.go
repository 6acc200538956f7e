package vector

import (
	"sort"

	"github.com/coder/hnsw"

	"github.com/kailas-cloud/offpath/internal/domain"
)

// HNSW graph defaults.
const (
	DefaultM        = 16
	DefaultEfSearch = 64
)

// HNSWParams tunes the approximate graph.
type HNSWParams struct {
	M        int
	EfSearch int
}

// HNSW is an approximate index. Candidates from the graph are re-ranked by exact squared L2
// so results follow the same ordering contract as Flat, at lower recall.
type HNSW struct {
	graph   *hnsw.Graph[int]
	vectors [][]float32
	dim     int
}

// NewHNSW validates dimensions and inserts every vector into a Euclidean HNSW graph.
func NewHNSW(vectors [][]float32, dim int, params HNSWParams) (*HNSW, error) {
	d, err := validate(vectors, dim)
	if err != nil {
		return nil, err
	}
	if params.M <= 0 {
		params.M = DefaultM
	}
	if params.EfSearch <= 0 {
		params.EfSearch = DefaultEfSearch
	}

	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.EuclideanDistance
	graph.M = params.M
	graph.EfSearch = params.EfSearch
	graph.Ml = 0.25

	nodes := make([]hnsw.Node[int], len(vectors))
	for i, v := range vectors {
		nodes[i] = hnsw.MakeNode(i, v)
	}
	if len(nodes) > 0 {
		graph.Add(nodes...)
	}

	return &HNSW{graph: graph, vectors: vectors, dim: d}, nil
}

// Len returns the number of stored vectors.
func (h *HNSW) Len() int { return len(h.vectors) }

// Dim returns the vector dimension.
func (h *HNSW) Dim() int { return h.dim }

// Search queries the graph for min(k, N) candidates and orders them by exact distance.
// A short graph answer is completed by an exact scan, so the count always matches Flat.
func (h *HNSW) Search(query []float32, k int) ([]Neighbor, error) {
	if len(h.vectors) == 0 || k <= 0 {
		return []Neighbor{}, nil
	}
	if len(query) != h.dim {
		return nil, domain.NewDimensionMismatch(h.dim, len(query))
	}
	if k > len(h.vectors) {
		k = len(h.vectors)
	}

	nodes := h.graph.Search(query, k)
	out := make([]Neighbor, 0, k)
	for _, n := range nodes {
		out = append(out, Neighbor{Doc: n.Key, Distance: SquaredL2(query, h.vectors[n.Key])})
	}
	if len(out) < k {
		out = h.fill(query, out, k)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// fill tops up a short candidate list with the exact nearest vectors not already in it.
// The graph may return fewer than k nodes when its neighborhoods are sparse.
func (h *HNSW) fill(query []float32, found []Neighbor, k int) []Neighbor {
	seen := make(map[int]struct{}, len(found))
	for _, n := range found {
		seen[n.Doc] = struct{}{}
	}
	rest := make([]Neighbor, 0, len(h.vectors)-len(found))
	for i, v := range h.vectors {
		if _, ok := seen[i]; ok {
			continue
		}
		rest = append(rest, Neighbor{Doc: i, Distance: SquaredL2(query, v)})
	}
	sort.Slice(rest, func(i, j int) bool { return less(rest[i], rest[j]) })
	return append(found, rest[:min(k-len(found), len(rest))]...)
}
