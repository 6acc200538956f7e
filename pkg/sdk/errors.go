package offpath

import "github.com/kailas-cloud/offpath/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery            = domain.ErrInvalidQuery
	ErrEmbedderNotConfigured   = domain.ErrEmbedderNotConfigured
	ErrEmptyCorpus             = domain.ErrEmptyCorpus
	ErrDimensionMismatch       = domain.ErrDimensionMismatch
	ErrCollaboratorUnavailable = domain.ErrCollaboratorUnavailable
	ErrVectorsMisaligned       = domain.ErrVectorsMisaligned
	ErrDuplicateDocument       = domain.ErrDuplicateDocument
)
