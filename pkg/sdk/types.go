package offpath

import "time"

// Mode selects the ranking strategy.
type Mode string

// Search mode constants.
const (
	// ModeBM25 ranks posts lexically. Higher Score is better.
	ModeBM25 Mode = "bm25"
	// ModeVector ranks posts by squared L2 distance to the query embedding. Lower Distance is better.
	ModeVector Mode = "vector"
)

// Result is one ranked post.
type Result struct {
	Rank        int
	ID          int64
	Destination string
	Country     string
	Lat, Lon    *float64

	// Score is set for ModeBM25, Distance for ModeVector.
	Score    float64
	Distance float64

	Title       string
	Description string
	Author      string
	PageURL     string
	BlogURL     string
	Preview     string
	Content     string
}

// IngestReport summarizes an Ingest call.
type IngestReport struct {
	Read       int
	Saved      int
	Invalid    int
	Duplicates int
	Embedded   int64
	EmbedFail  int64
	Duration   time.Duration
}

// IndexState describes the lazily built indexes.
type IndexState struct {
	Generation   uint64
	LexicalBuilt bool
	VectorBuilt  bool
	Documents    int
	VectorDim    int
	LastBuildErr string
}
