package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/offpath/internal/db"
)

// maxKeysPerCommand bounds MGET/MSET/DEL argument lists.
const maxKeysPerCommand = 500

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// MGet fetches values in chunks. Missing keys yield nil entries at their position.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, 0, len(keys))
	for offset := 0; offset < len(keys); offset += maxKeysPerCommand {
		chunk := keys[offset:min(offset+maxKeysPerCommand, len(keys))]
		msgs, err := s.do(ctx, s.b().Mget().Key(chunk...).Build()).ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		for _, m := range msgs {
			if m.IsNil() {
				out = append(out, nil)
				continue
			}
			data, err := m.AsBytes()
			if err != nil {
				return nil, &db.Error{Op: db.OpMGet, Err: err}
			}
			out = append(out, data)
		}
	}
	return out, nil
}

// MSet writes pairs in chunks of maxKeysPerCommand.
func (s *Store) MSet(ctx context.Context, items []db.KV) error {
	for offset := 0; offset < len(items); offset += maxKeysPerCommand {
		chunk := items[offset:min(offset+maxKeysPerCommand, len(items))]
		kv := s.b().Mset().KeyValue()
		for _, it := range chunk {
			kv = kv.KeyValue(it.Key, rueidis.BinaryString(it.Value))
		}
		if err := s.do(ctx, kv.Build()).Error(); err != nil {
			return &db.Error{Op: db.OpMSet, Err: err}
		}
	}
	return nil
}
