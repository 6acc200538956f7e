package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domblog "github.com/kailas-cloud/offpath/internal/domain/blog"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(context.Background(), ":memory:", "test-model", nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func post(t *testing.T, id int64, title, loc string, coords *domblog.Coordinates) domblog.Post {
	t.Helper()
	p, err := domblog.New(id, domblog.Fields{
		BlogURL:      "https://blog.example",
		PageURL:      "https://blog.example/" + title,
		Title:        title,
		LocationName: loc,
		Coordinates:  coords,
		Content:      title + " content",
	})
	require.NoError(t, err)
	return p
}

func TestRepo_SaveAndLoadPosts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SavePosts(ctx, []domblog.Post{
		post(t, 2, "dolomites", "Dolomites, Italy", &domblog.Coordinates{Latitude: 46.4, Longitude: 11.8}),
		post(t, 1, "kyoto", "Kyoto, Japan", nil),
	}))

	posts, err := r.LoadAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, int64(1), posts[0].ID(), "posts are ordered by id")
	assert.Equal(t, "kyoto", posts[0].Title())
	_, ok := posts[0].Coordinates()
	assert.False(t, ok)

	c, ok := posts[1].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 46.4, c.Latitude, 1e-9)
	assert.Equal(t, "Italy", posts[1].Country())
}

func TestRepo_SavePostsUpserts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SavePosts(ctx, []domblog.Post{post(t, 1, "kyoto", "Kyoto, Japan", nil)}))
	updated := post(t, 1, "kyoto", "Kyoto, Japan", nil)
	f := updated.Fields()
	f.Description = "revisited"
	require.NoError(t, r.SavePosts(ctx, []domblog.Post{domblog.Reconstruct(1, f)}))

	posts, err := r.LoadAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "revisited", posts[0].Description())
}

func TestRepo_Vectors(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SavePosts(ctx, []domblog.Post{
		post(t, 1, "kyoto", "Kyoto, Japan", nil),
		post(t, 2, "dolomites", "Dolomites, Italy", nil),
	}))
	require.NoError(t, r.SaveVectors(ctx, []int64{2, 1}, [][]float32{{0, 1}, {1, 0}}))

	ids, vecs, err := r.LoadPrecomputedVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestRepo_VectorsScopedToModel(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SavePosts(ctx, []domblog.Post{post(t, 1, "kyoto", "Kyoto, Japan", nil)}))
	require.NoError(t, r.SaveVectors(ctx, []int64{1}, [][]float32{{1, 0}}))

	other := &Repo{db: r.db, model: "other-model", logger: r.logger}
	ids, _, err := other.LoadPrecomputedVectors(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRepo_SaveVectorsLengthMismatch(t *testing.T) {
	r := newTestRepo(t)
	err := r.SaveVectors(context.Background(), []int64{1, 2}, [][]float32{{1}})
	assert.Error(t, err)
}

func TestRepo_SaveVectorForUnknownPostRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SavePosts(ctx, []domblog.Post{post(t, 1, "kyoto", "Kyoto, Japan", nil)}))
	err := r.SaveVectors(ctx, []int64{1, 99}, [][]float32{{1}, {2}})
	require.Error(t, err, "foreign key violation expected")

	ids, _, err := r.LoadPrecomputedVectors(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "partial batch must be rolled back")
}

func TestRepo_EmptyDatabase(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	posts, err := r.LoadAllDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
	require.NoError(t, r.Ping(ctx))
}
