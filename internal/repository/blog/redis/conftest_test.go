package redis

import (
	"context"
	"path"
	"sort"

	"github.com/kailas-cloud/offpath/internal/db"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	data    map[string][]byte
	pingErr error
	scanErr error
	mgetErr error
	msetErr error
	msets   int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockStore) MSet(_ context.Context, items []db.KV) error {
	if m.msetErr != nil {
		return m.msetErr
	}
	m.msets++
	for _, it := range items {
		m.data[it.Key] = it.Value
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	// SCAN order is arbitrary; reverse-sort to make sure the repo orders by id.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}
