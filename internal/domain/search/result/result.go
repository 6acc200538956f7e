package result

import (
	"github.com/kailas-cloud/offpath/internal/domain/blog"
	"github.com/kailas-cloud/offpath/internal/domain/search/mode"
)

// Result is a single ranked post. Exactly one of BM25Score or Distance is set, depending on mode.
type Result struct {
	post     blog.Post
	rank     int
	mode     mode.Mode
	score    float64
	distance float64
	preview  string
}

// NewLexical creates a BM25 ranked result.
func NewLexical(post blog.Post, rank int, score float64, preview string) Result {
	return Result{post: post, rank: rank, mode: mode.Lexical, score: score, preview: preview}
}

// NewVector creates a nearest-neighbor ranked result.
func NewVector(post blog.Post, rank int, distance float64, preview string) Result {
	return Result{post: post, rank: rank, mode: mode.Vector, distance: distance, preview: preview}
}

// Post returns the matched post.
func (r *Result) Post() blog.Post { return r.post }

// Rank returns the 1-based position in the result list.
func (r *Result) Rank() int { return r.rank }

// Mode returns the strategy that produced the result.
func (r *Result) Mode() mode.Mode { return r.mode }

// BM25Score returns the lexical score. ok is false for vector results.
func (r *Result) BM25Score() (score float64, ok bool) {
	return r.score, r.mode == mode.Lexical
}

// Distance returns the squared L2 distance. ok is false for lexical results.
func (r *Result) Distance() (distance float64, ok bool) {
	return r.distance, r.mode == mode.Vector
}

// Preview returns the truncated content.
func (r *Result) Preview() string { return r.preview }
