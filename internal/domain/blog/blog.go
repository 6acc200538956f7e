// Package blog holds the travel blog post aggregate and the corpus snapshot the indexes are built from.
package blog

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/offpath/internal/domain"
)

// DefaultPreviewLength is the number of content characters shown in a result preview.
const DefaultPreviewLength = 300

const ellipsis = "..."

// Coordinates is a geocoded position of the post's destination.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Fields are the raw attributes of a post, as stored or ingested.
type Fields struct {
	BlogURL      string
	PageURL      string
	Title        string
	Description  string
	Author       string
	LocationName string
	Coordinates  *Coordinates
	Content      string
}

// Post is a scraped travel blog page (immutable value object).
type Post struct {
	id     int64
	fields Fields
}

// New validates and creates a Post.
func New(id int64, f Fields) (Post, error) {
	if id <= 0 {
		return Post{}, fmt.Errorf("post id must be positive, got %d", id)
	}
	if strings.TrimSpace(f.PageURL) == "" {
		return Post{}, fmt.Errorf("post %d: page url is required", id)
	}
	if c := f.Coordinates; c != nil {
		if c.Latitude < -90 || c.Latitude > 90 {
			return Post{}, fmt.Errorf("post %d: latitude %v out of range", id, c.Latitude)
		}
		if c.Longitude < -180 || c.Longitude > 180 {
			return Post{}, fmt.Errorf("post %d: longitude %v out of range", id, c.Longitude)
		}
	}
	return Reconstruct(id, f), nil
}

// Reconstruct creates a Post without validation (storage hydration).
func Reconstruct(id int64, f Fields) Post {
	if f.Coordinates != nil {
		c := *f.Coordinates
		f.Coordinates = &c
	}
	return Post{id: id, fields: f}
}

// ID returns the stable post identifier.
func (p *Post) ID() int64 { return p.id }

// Fields returns a copy of the post attributes.
func (p *Post) Fields() Fields {
	f := p.fields
	if f.Coordinates != nil {
		c := *f.Coordinates
		f.Coordinates = &c
	}
	return f
}

// BlogURL returns the blog home page.
func (p *Post) BlogURL() string { return p.fields.BlogURL }

// PageURL returns the post page.
func (p *Post) PageURL() string { return p.fields.PageURL }

// Title returns the page title.
func (p *Post) Title() string { return p.fields.Title }

// Description returns the page meta description.
func (p *Post) Description() string { return p.fields.Description }

// Author returns the page author.
func (p *Post) Author() string { return p.fields.Author }

// LocationName returns the geocoded location label, e.g. "Kyoto, Japan".
func (p *Post) LocationName() string { return p.fields.LocationName }

// Content returns the page body text.
func (p *Post) Content() string { return p.fields.Content }

// Coordinates returns the destination position, ok is false when the post was not geocoded.
func (p *Post) Coordinates() (c Coordinates, ok bool) {
	if p.fields.Coordinates == nil {
		return Coordinates{}, false
	}
	return *p.fields.Coordinates, true
}

// SearchText is the text the lexical index sees: title, description and content.
func (p *Post) SearchText() string {
	return p.fields.Title + " " + p.fields.Description + " " + p.fields.Content
}

// Destination is the first part of the location name ("Kyoto" for "Kyoto, Japan").
func (p *Post) Destination() string {
	parts := strings.Split(p.fields.LocationName, ",")
	return strings.TrimSpace(parts[0])
}

// Country is the last comma separated part of the location name, empty when there is only one part.
func (p *Post) Country() string {
	parts := strings.Split(p.fields.LocationName, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

// Preview returns the first n characters of content, with an ellipsis when truncated.
func (p *Post) Preview(n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(p.fields.Content)
	if len(runes) <= n {
		return p.fields.Content
	}
	return string(runes[:n]) + ellipsis
}

// Corpus is an ordered snapshot of posts. Position i is the document id used by every index.
type Corpus struct {
	posts    []Post
	position map[int64]int
}

// NewCorpus builds a corpus, rejecting duplicate post ids.
func NewCorpus(posts []Post) (*Corpus, error) {
	c := &Corpus{
		posts:    make([]Post, len(posts)),
		position: make(map[int64]int, len(posts)),
	}
	for i, p := range posts {
		if prev, dup := c.position[p.id]; dup {
			return nil, fmt.Errorf("post %d at positions %d and %d: %w", p.id, prev, i, domain.ErrDuplicateDocument)
		}
		c.position[p.id] = i
		c.posts[i] = p
	}
	return c, nil
}

// Len returns the number of posts.
func (c *Corpus) Len() int { return len(c.posts) }

// At returns the post at position i.
func (c *Corpus) At(i int) Post { return c.posts[i] }

// Position returns the index position of the post with the given id.
func (c *Corpus) Position(id int64) (int, bool) {
	i, ok := c.position[id]
	return i, ok
}

// SearchTexts returns the lexical text of every post, in corpus order.
func (c *Corpus) SearchTexts() []string {
	texts := make([]string, len(c.posts))
	for i := range c.posts {
		texts[i] = c.posts[i].SearchText()
	}
	return texts
}
