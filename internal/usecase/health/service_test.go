package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/offpath/internal/corpus"
)

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockIndexStater struct {
	state corpus.State
}

func (m *mockIndexStater) State() corpus.State { return m.state }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["store"] != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks["store"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"] != CheckError {
		t.Errorf("expected store %q, got %q", CheckError, r.Checks["store"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{err: errors.New("timeout")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"] != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks["store"])
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_BothFail(t *testing.T) {
	svc := New(
		&mockStorePinger{err: errors.New("db down")},
		&mockEmbeddingChecker{err: errors.New("emb down")},
		nil,
	)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"] != CheckError {
		t.Error("expected store error")
	}
	if r.Checks["embedding"] != CheckError {
		t.Error("expected embedding error")
	}
}

func TestCheck_NoEmbedding(t *testing.T) {
	svc := New(&mockStorePinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["store"] != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks["store"])
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}

func TestCheck_NoEmbedding_StoreError(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("fail")}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"] != CheckError {
		t.Error("expected store error")
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}

func TestCheck_IndexPendingIsHealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, nil, &mockIndexStater{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["lexical_index"] != CheckPending {
		t.Errorf("expected lexical_index %q, got %q", CheckPending, r.Checks["lexical_index"])
	}
	if _, ok := r.Checks["vector_index"]; ok {
		t.Error("vector_index check should be absent without an embedder")
	}
}

func TestCheck_IndexBuilt(t *testing.T) {
	st := corpus.State{Generation: 2, CorpusLoaded: true, LexicalBuilt: true, VectorBuilt: true, Documents: 40, VectorDim: 768}
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{}, &mockIndexStater{state: st})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["lexical_index"] != CheckOK || r.Checks["vector_index"] != CheckOK {
		t.Errorf("unexpected checks %v", r.Checks)
	}
	if r.Index.Documents != 40 || r.Index.VectorDim != 768 {
		t.Errorf("index state not propagated: %+v", r.Index)
	}
}

func TestCheck_IndexBuildFailed(t *testing.T) {
	st := corpus.State{LexicalBuilt: true, LastBuildErr: "vectors misaligned with corpus"}
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{}, &mockIndexStater{state: st})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["lexical_index"] != CheckOK {
		t.Errorf("built lexical index must stay ok, got %q", r.Checks["lexical_index"])
	}
	if r.Checks["vector_index"] != CheckError {
		t.Errorf("expected vector_index %q, got %q", CheckError, r.Checks["vector_index"])
	}
}
