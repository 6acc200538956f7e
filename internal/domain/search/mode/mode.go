package mode

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/offpath/internal/domain"
)

// Mode is the retrieval strategy.
type Mode string

// Search mode constants.
const (
	// Lexical ranks posts with BM25 over their text.
	Lexical Mode = "bm25"
	// Vector ranks posts by squared L2 distance between embeddings.
	Vector Mode = "vector"
)

// faiss is the name the first version of the API used for the vector model.
const faiss = "faiss"

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Lexical || m == Vector
}

// Parse maps a client supplied model name to a Mode. Empty defaults to Lexical.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Lexical), "lexical":
		return Lexical, nil
	case string(Vector), faiss:
		return Vector, nil
	default:
		return "", fmt.Errorf("unknown retrieval model %q: %w", s, domain.ErrInvalidQuery)
	}
}
