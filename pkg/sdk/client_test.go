package offpath

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/offpath/internal/domain/search/request"
	"github.com/kailas-cloud/offpath/internal/domain/search/result"
)

const dump = `[
  {"id": 10, "page_url": "https://a.example/lofoten", "page_title": "Lofoten fjord hikes",
   "page_description": "Ridges above the fjord", "location_name": "Lofoten, Norway",
   "latitude": 68.2, "longitude": 13.6, "content": "<p>Reinebringen at dawn, fjord views all the way down.</p>"},
  {"id": 20, "page_url": "https://b.example/kyoto", "page_title": "Kyoto temple mornings",
   "location_name": "Kyoto, Japan", "content": "Fushimi Inari temple gates before the crowds."},
  {"id": 30, "page_url": "https://c.example/lisbon", "page_title": "Lisbon trams",
   "location_name": "Lisbon, Portugal", "content": "Tram 28 and pastel de nata."}
]`

// keywordEmbedder maps text onto fixed topic axes so distances are predictable.
type keywordEmbedder struct {
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls++
	t := strings.ToLower(text)
	v := []float32{0, 0, 0}
	if strings.Contains(t, "fjord") {
		v[0] = 1
	}
	if strings.Contains(t, "temple") {
		v[1] = 1
	}
	if strings.Contains(t, "tram") {
		v[2] = 1
	}
	return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithSQLite(":memory:")}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WithSQLite")
}

func TestSearch_BM25(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	rep, err := c.Ingest(ctx, strings.NewReader(dump), false)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Saved)

	results, err := c.Search(ctx, "fjord", ModeBM25, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Non-matching posts keep corpus order behind the match.
	assert.Equal(t, int64(20), results[1].ID)
	assert.Zero(t, results[2].Score)
	assert.Equal(t, int64(10), results[0].ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "Lofoten", results[0].Destination)
	assert.Equal(t, "Norway", results[0].Country)
	assert.Greater(t, results[0].Score, 0.0)
	require.NotNil(t, results[0].Lat)
	assert.InDelta(t, 68.2, *results[0].Lat, 1e-9)
	assert.NotContains(t, results[0].Content, "<p>")
}

func TestSearch_BlankQuery(t *testing.T) {
	c := newTestClient(t)

	results, err := c.Search(context.Background(), "   ", ModeBM25, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, c.State().LexicalBuilt)
}

func TestSearch_UnknownMode(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Search(context.Background(), "fjord", Mode("hybrid"), 5)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Search(context.Background(), "fjord", ModeBM25, 5)
	require.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestSearch_VectorWithoutEmbedder(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Ingest(context.Background(), strings.NewReader(dump), false)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "fjord", ModeVector, 5)
	require.ErrorIs(t, err, ErrEmbedderNotConfigured)
}

func TestSearch_Vector(t *testing.T) {
	emb := &keywordEmbedder{}
	c := newTestClient(t, WithEmbedder(emb, "keyword-3", 3))
	ctx := context.Background()

	rep, err := c.Ingest(ctx, strings.NewReader(dump), true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rep.Embedded)

	results, err := c.Search(ctx, "temple", ModeVector, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(20), results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
	assert.Greater(t, results[1].Distance, results[0].Distance)

	st := c.State()
	assert.True(t, st.VectorBuilt)
	assert.Equal(t, 3, st.VectorDim)
}

func TestSearch_VectorFillsMissingAtBuild(t *testing.T) {
	emb := &keywordEmbedder{}
	c := newTestClient(t, WithEmbedder(emb, "keyword-3", 3))
	ctx := context.Background()

	_, err := c.Ingest(ctx, strings.NewReader(dump), false)
	require.NoError(t, err)
	assert.Zero(t, emb.calls)

	results, err := c.Search(ctx, "tram", ModeVector, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(30), results[0].ID)
}

func TestReindexAndWarm(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.Ingest(ctx, strings.NewReader(dump), false)
	require.NoError(t, err)

	require.NoError(t, c.Warm(ctx))
	st := c.State()
	assert.True(t, st.LexicalBuilt)
	assert.Equal(t, 3, st.Documents)

	c.Reindex()
	after := c.State()
	assert.False(t, after.LexicalBuilt)
	assert.Greater(t, after.Generation, st.Generation)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)

	h := c.Health(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Checks["store"])
	assert.Equal(t, "pending", h.Checks["lexical_index"])
	_, hasVector := h.Checks["vector_index"]
	assert.False(t, hasVector)
}

func TestWithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, WithPrometheus(reg))

	_, _ = c.Search(context.Background(), "fjord", ModeBM25, 3)

	m, err := newSDKMetrics(reg)
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("search", "error")), 0)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newTestClient(t, WithLogger(logger))

	_, _ = c.Search(context.Background(), "fjord", ModeBM25, 3)
	assert.Contains(t, buf.String(), "op=search")
	assert.Contains(t, buf.String(), "operation failed")
}

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("noop", time.Now(), errors.New("ignored"))
}

type fakeSearch struct {
	err error
}

func (f *fakeSearch) Search(context.Context, *request.Request) ([]result.Result, error) {
	return nil, f.err
}

func TestSearch_WrapsServiceError(t *testing.T) {
	c := &Client{searchSvc: &fakeSearch{err: ErrCollaboratorUnavailable}}

	_, err := c.Search(context.Background(), "fjord", ModeBM25, 3)
	require.ErrorIs(t, err, ErrCollaboratorUnavailable)
}

func TestWithPrometheus_RecordsResultSizes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, WithPrometheus(reg))
	ctx := context.Background()
	_, err := c.Ingest(ctx, strings.NewReader(dump), false)
	require.NoError(t, err)

	_, err = c.Search(ctx, "fjord", ModeBM25, 2)
	require.NoError(t, err)

	m, err := newSDKMetrics(reg)
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(m.results))
	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("search", "ok")), 0)
}
