package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus signals that the document store yielded no documents at build time.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrDimensionMismatch signals vectors of non-uniform dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrCollaboratorUnavailable signals a document store or embedder failure.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrVectorsMisaligned signals precomputed vectors that do not cover the corpus.
	ErrVectorsMisaligned = errors.New("vectors misaligned with corpus")
	// ErrDuplicateDocument signals two documents sharing an id in one corpus.
	ErrDuplicateDocument = errors.New("duplicate document id")
	// ErrInvalidQuery signals a malformed search request (unknown mode, bad k).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbedderNotConfigured signals a vector search without a query embedder.
	ErrEmbedderNotConfigured = errors.New("embedder not configured")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the offending sizes.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch.Error(), e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(expected, got int) error {
	return &DimensionMismatchError{Expected: expected, Got: got}
}

// CollaboratorError wraps a failure of an external collaborator (store, embedder).
// errors.Is matches both ErrCollaboratorUnavailable and the underlying cause.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCollaboratorUnavailable.Error(), e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() []error { return []error{ErrCollaboratorUnavailable, e.Err} }

// NewCollaboratorError wraps err as a collaborator failure. Already wrapped errors pass through.
func NewCollaboratorError(collaborator string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCollaboratorUnavailable) {
		return err
	}
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}
