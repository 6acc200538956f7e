package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// ttlKVStore records whether writes went through SetWithTTL.
type ttlKVStore struct {
	*mapStore
	ttls []time.Duration
}

func (m *ttlKVStore) SetWithTTL(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	m.ttls = append(m.ttls, ttl)
	return nil
}

func TestEmbed_WritesWithTTL(t *testing.T) {
	inner := &lengthEmbedder{}
	ms := &ttlKVStore{mapStore: newMapStore()}
	ce := New(inner, ms, "redis", "m", nil, zap.NewNop()).WithTTL(time.Hour)

	if _, err := ce.Embed(context.Background(), "fjord"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(ms.ttls) != 1 || ms.ttls[0] != time.Hour {
		t.Errorf("ttls = %v, want [1h]", ms.ttls)
	}
	if ms.sets != 0 {
		t.Errorf("plain Set called %d times", ms.sets)
	}
}

func TestEmbed_ZeroTTLUsesSet(t *testing.T) {
	inner := &lengthEmbedder{}
	ms := &ttlKVStore{mapStore: newMapStore()}
	ce := New(inner, ms, "redis", "m", nil, zap.NewNop())

	if _, err := ce.Embed(context.Background(), "fjord"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if ms.sets != 1 || len(ms.ttls) != 0 {
		t.Errorf("sets = %d, ttls = %v", ms.sets, ms.ttls)
	}
}
