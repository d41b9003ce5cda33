// Command retailgen generates a reproducible synthetic retail dataset
// (products, stores, daily point-of-sale lines and monthly inventory) and
// publishes it as CSV files with a manifest.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailsynth/internal/blob"
	"retailsynth/internal/catalog"
	"retailsynth/internal/config"
	"retailsynth/internal/engine"
	"retailsynth/internal/export"
	"retailsynth/internal/metrics"
	"retailsynth/internal/pipeline"
	"retailsynth/internal/report"
	"retailsynth/internal/warehouse"
	"retailsynth/pkg/domain"
)

var (
	exitFunc      = os.Exit
	loadConfig    = config.Load
	engineOptions = engine.DefaultOptions
	signalContext = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
)

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	fs := flag.NewFlagSet("retailgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: retailgen [flags]\n\nEvery flag defaults from the matching %s* environment variable.\n\n", config.EnvPrefix)
		fs.PrintDefaults()
	}
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "Error: unexpected arguments %q\n", fs.Args())
		return 2
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signalContext()
	defer stop()
	if err := run(ctx, cfg, stdout, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cfg.Verbose:
		level = slog.LevelDebug
	case cfg.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	logger := newLogger(cfg, stderr)

	store, err := blob.Open(ctx, cfg.BlobConfig())
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	publisher := export.NewPublisher(store, export.WithPrefix(cfg.Prefix), export.WithOverwrite(cfg.Overwrite))
	collector := report.NewCollector()
	recorder := metrics.NewRecorder(cfg.MetricsFile != "")
	sinks := []domain.DatasetSink{publisher, recorder, collector}
	if cfg.Warehouse != "" {
		wh, err := warehouse.Open(ctx, cfg.Warehouse, cfg.DSN)
		if err != nil {
			return fmt.Errorf("open warehouse: %w", err)
		}
		defer func() { _ = wh.Close() }()
		// The warehouse commit is final; the runner commits it after the
		// publisher and recorder, which can still be retracted.
		sinks = append(sinks, wh)
	}

	runner := pipeline.New(pipeline.WithLogger(logger), pipeline.WithMetrics(recorder))
	_, runErr := runner.Run(ctx, pipeline.Config{
		Seed:     cfg.Seed,
		FromYear: cfg.FromYear,
		ToYear:   cfg.ToYear,
		Catalog:  catalog.Config{Products: cfg.Products, Stores: cfg.Stores, AsOf: cfg.AsOf.Time},
		Engine:   engineOptions(),
	}, sinks...)
	for _, a := range publisher.Artifacts() {
		recorder.SetArtifactBytes(a.Name, a.Bytes)
	}
	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics not written", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if cfg.Verify {
		if _, err := export.Verify(ctx, store, cfg.Prefix); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		logger.Info("artifacts verified", "count", len(publisher.Artifacts()))
	}
	manifestKey := publisher.Key(export.ManifestArtifact)
	switch url, err := store.PresignURL(ctx, manifestKey, blob.SignedURLOptions{Expiry: time.Hour}); {
	case err == nil:
		logger.Info("manifest available", "key", manifestKey, "url", url)
	case !errors.Is(err, blob.ErrUnsupported):
		logger.Warn("manifest url unavailable", "key", manifestKey, "error", err)
	}
	if cfg.Quiet {
		return nil
	}
	return report.Write(stdout, collector.Summary(), publisher.Artifacts())
}
