package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/offpath/internal/app"
	"github.com/kailas-cloud/offpath/internal/config"
	"github.com/kailas-cloud/offpath/internal/domain"
	logpkg "github.com/kailas-cloud/offpath/internal/logger"
	"github.com/kailas-cloud/offpath/internal/metrics"
	chiTransport "github.com/kailas-cloud/offpath/internal/transport/chi"
	healthuc "github.com/kailas-cloud/offpath/internal/usecase/health"
	searchuc "github.com/kailas-cloud/offpath/internal/usecase/search"
	"github.com/kailas-cloud/offpath/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting offpath API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("embedding_enabled", cfg.Embedding.Enabled),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	ctx := context.Background()
	stores, err := app.OpenStore(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer stores.Close()
	logger.Info("Connected to document store")

	// Nil interfaces, not typed nil pointers, when embedding is disabled.
	var (
		queryEmbedder searchuc.Embedder
		docEmbedder   domain.Embedder
		embCheck      healthuc.EmbeddingChecker
	)
	if emb := app.BuildEmbedders(&cfg.Embedding, stores, logger); emb != nil {
		queryEmbedder = emb.Query
		docEmbedder = emb.Document
		embCheck = emb
		logger.Info("Embedders created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	indexes := app.NewIndexCache(stores.Docs, &cfg, docEmbedder, logger)
	searchSvc := searchuc.New(indexes, queryEmbedder, searchuc.WithPreviewLength(cfg.Search.PreviewLength))
	healthSvc := healthuc.New(stores.Docs, embCheck, indexes)

	server := chiTransport.NewServer(searchSvc, healthSvc, indexes, cfg.Embedding.Enabled, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	if cfg.Index.WarmOnStart {
		go warm(indexes, cfg.Embedding.Enabled, logger)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

type warmer interface {
	Warm(ctx context.Context, withVector bool) error
}

// warm builds the indexes in the background. Failures are logged; requests retry the build.
func warm(indexes warmer, withVector bool, logger *zap.Logger) {
	start := time.Now()
	if err := indexes.Warm(context.Background(), withVector); err != nil {
		logger.Warn("Index warm-up failed", zap.Error(err))
		return
	}
	logger.Info("Indexes warmed",
		zap.Bool("vector", withVector),
		zap.Duration("duration", time.Since(start)),
	)
}
