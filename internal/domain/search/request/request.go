package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/offpath/internal/domain"
	"github.com/kailas-cloud/offpath/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 4096
	DefaultK       = 12
	MaxK           = 200
)

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	k          int
}

// New validates and normalizes search parameters.
// An empty query is valid and yields no results. Defaults: mode=bm25, k=12; k above MaxK is clamped.
func New(query string, m mode.Mode, k int) (Request, error) {
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidQuery)
	}
	if m == "" {
		m = mode.Lexical
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode %q: %w", m, domain.ErrInvalidQuery)
	}
	if k < 0 {
		return Request{}, fmt.Errorf("k must not be negative, got %d: %w", k, domain.ErrInvalidQuery)
	}
	if k == 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	return Request{query: query, searchMode: m, k: k}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// IsBlank reports whether the query has no non-whitespace characters.
func (r *Request) IsBlank() bool { return strings.TrimSpace(r.query) == "" }

// Mode returns the retrieval strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// K returns the maximum number of results.
func (r *Request) K() int { return r.k }
