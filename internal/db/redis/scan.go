package redis

import (
	"context"

	"github.com/kailas-cloud/offpath/internal/db"
)

// scanCount is the SCAN COUNT hint per round trip.
const scanCount = 500

// Scan iterates keys matching a pattern until the cursor wraps.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanCount).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
}
