// Package blog holds the storage representation of travel blog posts shared by the stores and ingest.
package blog

import (
	"encoding/json"
	"fmt"
	"io"

	domblog "github.com/kailas-cloud/offpath/internal/domain/blog"
)

// Record is one travel_blogs row, as found in the JSON dump files and in the Redis store.
type Record struct {
	ID              int64    `json:"id"`
	BlogURL         string   `json:"blog_url"`
	PageURL         string   `json:"page_url"`
	PageTitle       string   `json:"page_title"`
	PageDescription string   `json:"page_description"`
	PageAuthor      string   `json:"page_author"`
	LocationName    string   `json:"location_name"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Content         string   `json:"content"`
}

// FromPost converts a domain post into its storage record.
func FromPost(p *domblog.Post) Record {
	r := Record{
		ID:              p.ID(),
		BlogURL:         p.BlogURL(),
		PageURL:         p.PageURL(),
		PageTitle:       p.Title(),
		PageDescription: p.Description(),
		PageAuthor:      p.Author(),
		LocationName:    p.LocationName(),
		Content:         p.Content(),
	}
	if c, ok := p.Coordinates(); ok {
		lat, lon := c.Latitude, c.Longitude
		r.Latitude, r.Longitude = &lat, &lon
	}
	return r
}

// Fields returns the record attributes. Coordinates are set only when both are present.
func (r *Record) Fields() domblog.Fields {
	f := domblog.Fields{
		BlogURL:      r.BlogURL,
		PageURL:      r.PageURL,
		Title:        r.PageTitle,
		Description:  r.PageDescription,
		Author:       r.PageAuthor,
		LocationName: r.LocationName,
		Content:      r.Content,
	}
	if r.Latitude != nil && r.Longitude != nil {
		f.Coordinates = &domblog.Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return f
}

// Post validates the record and converts it into a domain post.
func (r *Record) Post() (domblog.Post, error) {
	p, err := domblog.New(r.ID, r.Fields())
	if err != nil {
		return domblog.Post{}, fmt.Errorf("record %d: %w", r.ID, err)
	}
	return p, nil
}

// Reconstruct converts a stored record without validation.
func (r *Record) Reconstruct() domblog.Post {
	return domblog.Reconstruct(r.ID, r.Fields())
}

// ReadDump decodes a JSON array of travel_blogs rows.
func ReadDump(src io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(src).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	return records, nil
}
