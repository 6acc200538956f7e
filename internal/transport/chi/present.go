package chi

import (
	"math"

	"github.com/kailas-cloud/offpath/internal/domain/search/result"
)

// presentResults maps ranked results to response items and drops those below minConfidence.
//
// Confidence is presentation only. Lexical: score relative to the best score in the response
// (0 when the best score is 0). Vector: 1 / (1 + distance).
func presentResults(results []result.Result, minConfidence float64) []SearchResultItem {
	best := 0.0
	for i := range results {
		if s, ok := results[i].BM25Score(); ok && s > best {
			best = s
		}
	}

	items := make([]SearchResultItem, 0, len(results))
	for i := range results {
		item := presentResult(&results[i], best)
		if item.Confidence < minConfidence {
			continue
		}
		items = append(items, item)
	}
	return items
}

func presentResult(r *result.Result, bestScore float64) SearchResultItem {
	p := r.Post()
	item := SearchResultItem{
		Rank:        r.Rank(),
		Destination: p.Destination(),
		Country:     p.Country(),
		FullContent: p.Content(),
		Snippets:    snippets(p.Description(), r.Preview()),
		Why: map[string]any{
			"model":      string(r.Mode()),
			"page_title": p.Title(),
			"page_url":   p.PageURL(),
			"blog_url":   p.BlogURL(),
			"author":     p.Author(),
		},
	}
	if c, ok := p.Coordinates(); ok {
		lat, lon := c.Latitude, c.Longitude
		item.Lat, item.Lon = &lat, &lon
	}

	if s, ok := r.BM25Score(); ok {
		item.Score = round4(s)
		item.BM25Score = &s
		if bestScore > 0 {
			item.Confidence = round4(s / bestScore)
		}
	}
	if d, ok := r.Distance(); ok {
		item.Score = round4(d)
		item.Distance = &d
		item.Confidence = round4(1 / (1 + d))
	}
	return item
}

func snippets(description, preview string) []string {
	out := make([]string, 0, 2)
	if description != "" {
		out = append(out, description)
	}
	if preview != "" {
		out = append(out, preview)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
