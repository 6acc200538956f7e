// Package bm25 implements the Okapi BM25 lexical ranking model over an in-memory corpus.
package bm25

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/offpath/internal/domain"
)

// Default BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Params are the BM25 free parameters.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams returns k1=1.5, b=0.75.
func DefaultParams() Params {
	return Params{K1: DefaultK1, B: DefaultB}
}

// Hit is a scored document position.
type Hit struct {
	Doc   int
	Score float64
}

// Stats summarizes the term statistics of a built index.
type Stats struct {
	Documents      int
	Vocabulary     int
	AvgDocLength   float64
	TotalDocTokens int
}

// Index holds the term statistics of a corpus. It is immutable after Build and safe for concurrent reads.
type Index struct {
	params    Params
	docLen    []int
	tf        []map[string]int
	df        map[string]int
	avgDocLen float64
	tokens    int
}

// Build tokenizes every text and records document lengths, term and document frequencies.
// Position i of texts is document i.
func Build(texts []string, params Params) (*Index, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if params.K1 < 0 || params.B < 0 || params.B > 1 {
		return nil, fmt.Errorf("invalid bm25 params k1=%v b=%v", params.K1, params.B)
	}

	idx := &Index{
		params: params,
		docLen: make([]int, len(texts)),
		tf:     make([]map[string]int, len(texts)),
		df:     make(map[string]int),
	}
	for i, text := range texts {
		terms := Tokenize(text)
		freq := make(map[string]int, len(terms))
		for _, term := range terms {
			freq[term]++
		}
		for term := range freq {
			idx.df[term]++
		}
		idx.docLen[i] = len(terms)
		idx.tf[i] = freq
		idx.tokens += len(terms)
	}
	idx.avgDocLen = float64(idx.tokens) / float64(len(texts))

	return idx, nil
}

// Len returns the number of documents.
func (idx *Index) Len() int { return len(idx.docLen) }

// Stats returns corpus level statistics.
func (idx *Index) Stats() Stats {
	return Stats{
		Documents:      len(idx.docLen),
		Vocabulary:     len(idx.df),
		AvgDocLength:   idx.avgDocLen,
		TotalDocTokens: idx.tokens,
	}
}

// Score returns the BM25 score of document doc for query. Out of range documents score 0.
func (idx *Index) Score(query string, doc int) float64 {
	if doc < 0 || doc >= len(idx.docLen) {
		return 0
	}
	return idx.score(Tokenize(query), doc)
}

// Search scores every document and returns the top n by descending score, ties by ascending position.
// Documents scoring 0 are still ranked.
func (idx *Index) Search(query string, n int) []Hit {
	if n <= 0 {
		return []Hit{}
	}
	terms := Tokenize(query)
	hits := make([]Hit, len(idx.docLen))
	for doc := range idx.docLen {
		hits[doc] = Hit{Doc: doc, Score: idx.score(terms, doc)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Doc < hits[j].Doc
	})
	if n < len(hits) {
		hits = hits[:n]
	}
	return hits
}

// score sums per-term contributions. Repeated query terms count once per occurrence.
func (idx *Index) score(terms []string, doc int) float64 {
	// An all-empty corpus has avgDocLen 0 and every tf is 0, so no term contributes.
	if idx.avgDocLen == 0 {
		return 0
	}
	k1, b := idx.params.K1, idx.params.B
	norm := k1 * (1 - b + b*float64(idx.docLen[doc])/idx.avgDocLen)

	var total float64
	for _, term := range terms {
		df, ok := idx.df[term]
		if !ok {
			continue
		}
		tf := float64(idx.tf[doc][term])
		if tf == 0 {
			continue
		}
		total += idx.idf(df) * tf * (k1 + 1) / (tf + norm)
	}
	return total
}

func (idx *Index) idf(df int) float64 {
	n := float64(len(idx.docLen))
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}
