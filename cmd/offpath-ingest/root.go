package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/offpath/internal/app"
	"github.com/kailas-cloud/offpath/internal/config"
	"github.com/kailas-cloud/offpath/internal/domain"
	logpkg "github.com/kailas-cloud/offpath/internal/logger"
	"github.com/kailas-cloud/offpath/internal/usecase/ingest"
	"github.com/kailas-cloud/offpath/internal/version"
)

type ingestOptions struct {
	configPath string
	env        string
	embed      bool
	force      bool
	workers    int
	batchSize  int
}

func newRootCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "offpath-ingest [flags] <dump.json>...",
		Short: "Load travel_blogs dumps into the offpath document store",
		Long: `Load travel_blogs JSON dumps (an array of rows) into the configured store.

HTML is stripped from titles, descriptions and content. Rows with an id seen
earlier in the run are skipped. With --embed every post without a stored
vector for the configured model is embedded; --force re-embeds all of them.
Use "-" to read a dump from stdin.

Examples:
  offpath-ingest data/travel_blogs.json
  offpath-ingest --embed --workers 8 data/*.json
  ENV=prod offpath-ingest --embed --force dump.json`,
		Version:      version.Version,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: config/<env>.yaml)")
	cmd.Flags().StringVar(&opts.env, "env", config.GetEnv(), "Environment name used to locate the config")
	cmd.Flags().BoolVar(&opts.embed, "embed", false, "Embed posts that have no stored vector")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Re-embed every post (implies --embed)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", ingest.DefaultWorkers, "Concurrent embedding workers")
	cmd.Flags().IntVarP(&opts.batchSize, "batch-size", "b", ingest.DefaultBatchSize, "Posts per write and per embedding request")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, paths []string, opts ingestOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(opts.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	embed := opts.embed || opts.force
	if embed && !cfg.Embedding.Enabled {
		return fmt.Errorf("--embed needs embedding.enabled in the config: %w", domain.ErrEmbedderNotConfigured)
	}

	stores, err := app.OpenStore(ctx, &cfg, logger)
	if err != nil {
		return err //nolint:wrapcheck // already describes the driver
	}
	defer stores.Close()

	var docEmbedder domain.Embedder
	if emb := app.BuildEmbedders(&cfg.Embedding, stores, logger); emb != nil {
		docEmbedder = emb.Document
	}

	sources, closeAll, err := openSources(paths, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeAll()

	svc := ingest.New(stores.Docs, docEmbedder,
		ingest.WithBatchSize(opts.batchSize),
		ingest.WithWorkers(opts.workers),
		ingest.WithLogger(logger),
	)
	rep, err := svc.Run(ctx, sources, embed, opts.force)
	printReport(cmd.OutOrStdout(), rep)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if rep.EmbedFail > 0 {
		return fmt.Errorf("%d posts failed to embed", rep.EmbedFail)
	}
	return nil
}

func loadConfig(opts ingestOptions) (config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath) //nolint:wrapcheck // includes the path
	}
	return config.Load(opts.env) //nolint:wrapcheck // includes the path
}

// openSources opens every path. The returned func closes whatever was opened.
func openSources(paths []string, stdin io.Reader) ([]ingest.Source, func(), error) {
	var (
		sources []ingest.Source
		files   []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, p := range paths {
		if p == "-" {
			sources = append(sources, ingest.Source{Name: "stdin", Reader: stdin})
			continue
		}
		f, err := os.Open(filepath.Clean(p))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open dump: %w", err)
		}
		files = append(files, f)
		sources = append(sources, ingest.Source{Name: p, Reader: f})
	}
	if len(sources) == 0 {
		return nil, nil, errors.New("no dumps given")
	}
	return sources, closeAll, nil
}

func printReport(w io.Writer, rep ingest.Report) {
	_, _ = fmt.Fprintf(w, "read %d, saved %d, invalid %d, duplicates %d, embedded %d, embed failures %d (%s)\n",
		rep.Read, rep.Saved, rep.Invalid, rep.Duplicates, rep.Embedded, rep.EmbedFail, rep.Duration.Round(time.Millisecond))
}
