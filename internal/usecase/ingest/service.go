// Package ingest loads travel_blogs dumps into a document store and embeds the posts.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/offpath/internal/domain"
	domblog "github.com/kailas-cloud/offpath/internal/domain/blog"
	"github.com/kailas-cloud/offpath/internal/metrics"
	blogrepo "github.com/kailas-cloud/offpath/internal/repository/blog"
)

const (
	// DefaultBatchSize is the number of posts per store write and per embedding request.
	DefaultBatchSize = 32
	// DefaultWorkers is the number of concurrent embedding workers.
	DefaultWorkers = 4
)

// Source is one dump to ingest.
type Source struct {
	Name   string
	Reader io.Reader
}

// Report summarizes an ingest run.
type Report struct {
	Read       int
	Saved      int
	Invalid    int
	Duplicates int
	Embedded   int64
	EmbedFail  int64
	Duration   time.Duration
}

// Service ingests dumps.
type Service struct {
	store     Store
	embedder  domain.Embedder
	batchSize int
	workers   int
	logger    *zap.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithBatchSize sets the batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers sets the number of embedding workers.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an ingest service. embedder is the document embedder and can be nil.
func New(store Store, embedder domain.Embedder, opts ...Option) *Service {
	s := &Service{
		store:     store,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run loads the sources, saves valid posts and, when embed is set, embeds every saved post
// that has no stored vector yet (all of them when force is set).
func (s *Service) Run(ctx context.Context, sources []Source, embed, force bool) (Report, error) {
	start := time.Now()
	var rep Report

	posts, err := s.load(sources, &rep)
	if err != nil {
		return rep, err
	}

	for offset := 0; offset < len(posts); offset += s.batchSize {
		batch := posts[offset:min(offset+s.batchSize, len(posts))]
		if err := s.store.SavePosts(ctx, batch); err != nil {
			metrics.IngestPostsTotal.WithLabelValues("error").Add(float64(len(batch)))
			return rep, fmt.Errorf("save posts at %d: %w", offset, err)
		}
		rep.Saved += len(batch)
		metrics.IngestPostsTotal.WithLabelValues("saved").Add(float64(len(batch)))
	}
	s.logger.Info("Posts saved",
		zap.Int("read", rep.Read),
		zap.Int("saved", rep.Saved),
		zap.Int("invalid", rep.Invalid),
		zap.Int("duplicates", rep.Duplicates),
	)

	if embed {
		if s.embedder == nil {
			return rep, domain.ErrEmbedderNotConfigured
		}
		pending, err := s.pending(ctx, posts, force)
		if err != nil {
			return rep, err
		}
		rep.Embedded, rep.EmbedFail = s.embed(ctx, pending)
		s.logger.Info("Posts embedded",
			zap.Int("pending", len(pending)),
			zap.Int64("embedded", rep.Embedded),
			zap.Int64("failed", rep.EmbedFail),
		)
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("embed: %w", err)
		}
	}

	rep.Duration = time.Since(start)
	return rep, nil
}

// load decodes, cleans and validates the sources. The first occurrence of an id wins.
func (s *Service) load(sources []Source, rep *Report) ([]domblog.Post, error) {
	seen := make(map[int64]struct{})
	var posts []domblog.Post

	for _, src := range sources {
		records, err := blogrepo.ReadDump(src.Reader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		for i := range records {
			rec := &records[i]
			rep.Read++
			if _, dup := seen[rec.ID]; dup {
				rep.Duplicates++
				metrics.IngestPostsTotal.WithLabelValues("duplicate").Inc()
				continue
			}

			rec.PageTitle = CleanText(rec.PageTitle)
			rec.PageDescription = CleanText(rec.PageDescription)
			rec.Content = CleanText(rec.Content)

			p, err := rec.Post()
			if err != nil {
				rep.Invalid++
				metrics.IngestPostsTotal.WithLabelValues("invalid").Inc()
				s.logger.Warn("Skipping invalid record", zap.String("source", src.Name), zap.Error(err))
				continue
			}
			seen[rec.ID] = struct{}{}
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (s *Service) pending(ctx context.Context, posts []domblog.Post, force bool) ([]domblog.Post, error) {
	if force {
		return posts, nil
	}
	ids, _, err := s.store.LoadPrecomputedVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored vectors: %w", err)
	}
	have := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		have[id] = struct{}{}
	}
	out := make([]domblog.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := have[p.ID()]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// embed runs a worker pool over batches of posts. A failed batch is counted and logged, not fatal.
func (s *Service) embed(ctx context.Context, posts []domblog.Post) (embedded, failed int64) {
	batches := make(chan []domblog.Post, s.workers*2)
	var wg sync.WaitGroup
	var ok, bad atomic.Int64

	for i := range s.workers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for batch := range batches {
				n, err := s.embedBatch(ctx, batch)
				if err != nil {
					bad.Add(int64(len(batch)))
					metrics.IngestVectorsTotal.WithLabelValues("error").Add(float64(len(batch)))
					if !errors.Is(err, context.Canceled) {
						s.logger.Error("Embedding batch failed",
							zap.Int("worker", workerID),
							zap.Int64("first_id", batch[0].ID()),
							zap.Error(err),
						)
					}
					continue
				}
				ok.Add(int64(n))
				metrics.IngestVectorsTotal.WithLabelValues("saved").Add(float64(n))
			}
		}(i)
	}

produce:
	for offset := 0; offset < len(posts); offset += s.batchSize {
		select {
		case <-ctx.Done():
			break produce
		case batches <- posts[offset:min(offset+s.batchSize, len(posts))]:
		}
	}
	close(batches)
	wg.Wait()

	return ok.Load(), bad.Load()
}

func (s *Service) embedBatch(ctx context.Context, batch []domblog.Post) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err //nolint:wrapcheck // cancellation is reported as-is
	}
	texts := make([]string, len(batch))
	ids := make([]int64, len(batch))
	for i := range batch {
		texts[i] = batch[i].SearchText()
		ids[i] = batch[i].ID()
	}

	res, err := domain.EmbedBatch(ctx, s.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if err := res.Check(len(batch)); err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if err := s.store.SaveVectors(ctx, ids, res.Embeddings); err != nil {
		return 0, fmt.Errorf("save vectors: %w", err)
	}
	return len(batch), nil
}
