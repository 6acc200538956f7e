package chi

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned by the API.
const (
	ErrorResponseCodeBadRequest            ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized          ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInvalidQuery          ErrorResponseCode = "invalid_query"
	ErrorResponseCodeEmbedderNotConfigured ErrorResponseCode = "embedder_not_configured"
	ErrorResponseCodeDimensionMismatch     ErrorResponseCode = "dimension_mismatch"
	ErrorResponseCodeCollaboratorDown      ErrorResponseCode = "collaborator_unavailable"
	ErrorResponseCodeEmptyCorpus           ErrorResponseCode = "empty_corpus"
	ErrorResponseCodeCorpusInvalid         ErrorResponseCode = "corpus_invalid"
	ErrorResponseCodeInternalError         ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchFilters narrow the ranked results.
type SearchFilters struct {
	MinConfidence float64 `json:"min_confidence"`
}

// SearchRetrieval picks the retrieval model and result count.
type SearchRetrieval struct {
	Model string `json:"model"`
	K     *int   `json:"k,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query     string          `json:"query"`
	Filters   SearchFilters   `json:"filters"`
	Retrieval SearchRetrieval `json:"retrieval"`
}

// SearchParams echoes the effective request parameters.
type SearchParams struct {
	Filters   SearchFilters   `json:"filters"`
	Retrieval SearchRetrieval `json:"retrieval"`
	ModelUsed string          `json:"model_used"`
}

// SearchResultItem is one ranked destination.
type SearchResultItem struct {
	Rank        int      `json:"rank"`
	Destination string   `json:"destination"`
	Country     string   `json:"country"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	// Score is the BM25 score for bm25 results and the squared L2 distance for vector results.
	Score       float64        `json:"score"`
	BM25Score   *float64       `json:"bm25_score,omitempty"`
	Distance    *float64       `json:"distance,omitempty"`
	Confidence  float64        `json:"confidence"`
	Snippets    []string       `json:"snippets"`
	FullContent string         `json:"full_content"`
	Why         map[string]any `json:"why"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query   string             `json:"query"`
	Params  SearchParams       `json:"params"`
	Results []SearchResultItem `json:"results"`
}

// IndexState reports the corpus cache.
type IndexState struct {
	Generation    uint64  `json:"generation"`
	Documents     int     `json:"documents"`
	LexicalBuilt  bool    `json:"lexical_built"`
	VectorBuilt   bool    `json:"vector_built"`
	VectorDim     int     `json:"vector_dim,omitempty"`
	LastBuildTime *string `json:"last_build_time,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
	Index   *IndexState       `json:"index,omitempty"`
}

// ReindexResponse is the body of POST /admin/reindex.
type ReindexResponse struct {
	Generation uint64 `json:"generation"`
	Warmed     bool   `json:"warmed"`
}
