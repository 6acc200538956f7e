// Package sqlite stores travel blog posts and their embeddings in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/kailas-cloud/offpath/internal/db"
	domblog "github.com/kailas-cloud/offpath/internal/domain/blog"
)

const schema = `
CREATE TABLE IF NOT EXISTS travel_blogs (
	id               INTEGER PRIMARY KEY,
	blog_url         TEXT,
	page_url         TEXT UNIQUE NOT NULL,
	page_title       TEXT,
	page_description TEXT,
	page_author      TEXT,
	location_name    TEXT,
	latitude         REAL,
	longitude        REAL,
	content          TEXT
);

CREATE TABLE IF NOT EXISTS blog_embeddings (
	blog_id   INTEGER NOT NULL REFERENCES travel_blogs(id) ON DELETE CASCADE,
	model     TEXT NOT NULL,
	dim       INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	PRIMARY KEY (blog_id, model)
);
`

const upsertPost = `
INSERT INTO travel_blogs (id, blog_url, page_url, page_title, page_description, page_author,
	location_name, latitude, longitude, content)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	blog_url = excluded.blog_url,
	page_url = excluded.page_url,
	page_title = excluded.page_title,
	page_description = excluded.page_description,
	page_author = excluded.page_author,
	location_name = excluded.location_name,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	content = excluded.content`

const upsertVector = `
INSERT INTO blog_embeddings (blog_id, model, dim, embedding) VALUES (?, ?, ?, ?)
ON CONFLICT(blog_id, model) DO UPDATE SET dim = excluded.dim, embedding = excluded.embedding`

// Repo is the SQLite document store. Embeddings are scoped to one model.
type Repo struct {
	db     *sql.DB
	model  string
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path, model string, logger *zap.Logger) (*Repo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single connection: one writer, and an in-memory database lives as long as it does.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	r := &Repo{db: conn, model: model, logger: logger}
	if err := r.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) migrate(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := r.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the database handle.
func (r *Repo) Close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn("Failed to close sqlite", zap.Error(err))
	}
}

// LoadAllDocuments returns every post ordered by id.
func (r *Repo) LoadAllDocuments(ctx context.Context) ([]domblog.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, blog_url, page_url, page_title, page_description, page_author,
			location_name, latitude, longitude, content
		FROM travel_blogs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []domblog.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func scanPost(rows *sql.Rows) (domblog.Post, error) {
	var (
		id                                         int64
		blogURL, title, desc, author, loc, content sql.NullString
		pageURL                                    string
		lat, lon                                   sql.NullFloat64
	)
	if err := rows.Scan(&id, &blogURL, &pageURL, &title, &desc, &author, &loc, &lat, &lon, &content); err != nil {
		return domblog.Post{}, fmt.Errorf("scan post: %w", err)
	}
	f := domblog.Fields{
		BlogURL:      blogURL.String,
		PageURL:      pageURL,
		Title:        title.String,
		Description:  desc.String,
		Author:       author.String,
		LocationName: loc.String,
		Content:      content.String,
	}
	if lat.Valid && lon.Valid {
		f.Coordinates = &domblog.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return domblog.Reconstruct(id, f), nil
}

// LoadPrecomputedVectors returns the stored embeddings of the configured model, ordered by post id.
func (r *Repo) LoadPrecomputedVectors(ctx context.Context) ([]int64, [][]float32, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT blog_id, dim, embedding FROM blog_embeddings WHERE model = ? ORDER BY blog_id`, r.model)
	if err != nil {
		return nil, nil, fmt.Errorf("query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		ids     []int64
		vectors [][]float32
	)
	for rows.Next() {
		var (
			id  int64
			dim int
			raw []byte
		)
		if err := rows.Scan(&id, &dim, &raw); err != nil {
			return nil, nil, fmt.Errorf("scan vector: %w", err)
		}
		vec, err := db.DecodeVector(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("vector %d: %w", id, err)
		}
		if len(vec) != dim {
			return nil, nil, fmt.Errorf("vector %d: stored dim %d, decoded %d", id, dim, len(vec))
		}
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate vectors: %w", err)
	}
	return ids, vectors, nil
}

// SavePosts upserts posts by id in one transaction.
func (r *Repo) SavePosts(ctx context.Context, posts []domblog.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return r.inTx(ctx, upsertPost, func(stmt *sql.Stmt) error {
		for i := range posts {
			p := &posts[i]
			var lat, lon sql.NullFloat64
			if c, ok := p.Coordinates(); ok {
				lat = sql.NullFloat64{Float64: c.Latitude, Valid: true}
				lon = sql.NullFloat64{Float64: c.Longitude, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, p.ID(), p.BlogURL(), p.PageURL(), p.Title(),
				p.Description(), p.Author(), p.LocationName(), lat, lon, p.Content()); err != nil {
				return fmt.Errorf("upsert post %d: %w", p.ID(), err)
			}
		}
		return nil
	})
}

// SaveVectors upserts embeddings of the configured model: ids[i] owns vectors[i].
func (r *Repo) SaveVectors(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("save vectors: %d ids for %d vectors", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}
	return r.inTx(ctx, upsertVector, func(stmt *sql.Stmt) error {
		for i, id := range ids {
			if _, err := stmt.ExecContext(ctx, id, r.model, len(vectors[i]), db.EncodeVector(vectors[i])); err != nil {
				return fmt.Errorf("upsert vector %d: %w", id, err)
			}
		}
		return nil
	})
}

func (r *Repo) inTx(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if err := fn(stmt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
