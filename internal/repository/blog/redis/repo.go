// Package redis stores travel blog posts and their embeddings as plain Redis/Valkey keys.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/offpath/internal/db"
	"github.com/kailas-cloud/offpath/internal/domain"
	domblog "github.com/kailas-cloud/offpath/internal/domain/blog"
	blogrepo "github.com/kailas-cloud/offpath/internal/repository/blog"
)

var (
	postKeyPrefix   = domain.KeyPrefix + "blog:"
	vectorKeyPrefix = domain.KeyPrefix + "vec:"
)

// store is the consumer interface for the blog repository (ISP).
type store interface {
	db.Pinger
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	MSet(ctx context.Context, items []db.KV) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo is the Redis/Valkey document store.
type Repo struct {
	store store
}

// New creates a blog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx) //nolint:wrapcheck // db.Error already names the op
}

// LoadAllDocuments returns every post ordered by id.
func (r *Repo) LoadAllDocuments(ctx context.Context) ([]domblog.Post, error) {
	keys, ids, err := r.scanIDs(ctx, postKeyPrefix)
	if err != nil {
		return nil, err
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget posts: %w", err)
	}

	posts := make([]domblog.Post, 0, len(values))
	for i, raw := range values {
		if raw == nil {
			continue // deleted between SCAN and MGET
		}
		var rec blogrepo.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		rec.ID = ids[i]
		posts = append(posts, rec.Reconstruct())
	}
	return posts, nil
}

// LoadPrecomputedVectors returns stored embeddings ordered by post id.
func (r *Repo) LoadPrecomputedVectors(ctx context.Context) ([]int64, [][]float32, error) {
	keys, ids, err := r.scanIDs(ctx, vectorKeyPrefix)
	if err != nil {
		return nil, nil, err
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("mget vectors: %w", err)
	}

	outIDs := make([]int64, 0, len(values))
	vectors := make([][]float32, 0, len(values))
	for i, raw := range values {
		if raw == nil {
			continue
		}
		vec, err := db.DecodeVector(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		outIDs = append(outIDs, ids[i])
		vectors = append(vectors, vec)
	}
	return outIDs, vectors, nil
}

// SavePosts writes posts as JSON records.
func (r *Repo) SavePosts(ctx context.Context, posts []domblog.Post) error {
	items := make([]db.KV, 0, len(posts))
	for i := range posts {
		data, err := json.Marshal(blogrepo.FromPost(&posts[i]))
		if err != nil {
			return fmt.Errorf("marshal post %d: %w", posts[i].ID(), err)
		}
		items = append(items, db.KV{Key: postKey(posts[i].ID()), Value: data})
	}
	if len(items) == 0 {
		return nil
	}
	if err := r.store.MSet(ctx, items); err != nil {
		return fmt.Errorf("mset posts: %w", err)
	}
	return nil
}

// SaveVectors writes embeddings as little-endian float32 blobs: ids[i] owns vectors[i].
func (r *Repo) SaveVectors(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("save vectors: %d ids for %d vectors", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}
	items := make([]db.KV, len(ids))
	for i, id := range ids {
		items[i] = db.KV{Key: vectorKey(id), Value: db.EncodeVector(vectors[i])}
	}
	if err := r.store.MSet(ctx, items); err != nil {
		return fmt.Errorf("mset vectors: %w", err)
	}
	return nil
}

// scanIDs returns the keys under prefix sorted by their numeric id. Keys with a non-numeric suffix are skipped.
func (r *Repo) scanIDs(ctx context.Context, prefix string) ([]string, []int64, error) {
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", prefix, err)
	}

	type entry struct {
		key string
		id  int64
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, prefix), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, entry{key: k, id: id})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	outKeys := make([]string, len(entries))
	ids := make([]int64, len(entries))
	for i, e := range entries {
		outKeys[i], ids[i] = e.key, e.id
	}
	return outKeys, ids, nil
}

func postKey(id int64) string   { return postKeyPrefix + strconv.FormatInt(id, 10) }
func vectorKey(id int64) string { return vectorKeyPrefix + strconv.FormatInt(id, 10) }
