// Command precip runs the ICOADS precipitation-frequency aggregation
// pipeline once: it ingests observation reports from the configured source,
// bins them onto the global 1° grid, smooths at every window size,
// estimates precipitating fractions, selects composites, and writes the
// results database.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/oceanclim/icoads-precip-etl/internal/adapter/http"
	"github.com/oceanclim/icoads-precip-etl/internal/adapter/icoads"
	kafkaadapter "github.com/oceanclim/icoads-precip-etl/internal/adapter/kafka"
	"github.com/oceanclim/icoads-precip-etl/internal/adapter/landmask"
	"github.com/oceanclim/icoads-precip-etl/internal/adapter/store"
	"github.com/oceanclim/icoads-precip-etl/internal/binning"
	"github.com/oceanclim/icoads-precip-etl/internal/config"
	"github.com/oceanclim/icoads-precip-etl/internal/convolve"
	"github.com/oceanclim/icoads-precip-etl/internal/domain"
	"github.com/oceanclim/icoads-precip-etl/internal/estimate"
	"github.com/oceanclim/icoads-precip-etl/internal/grid"
	"github.com/oceanclim/icoads-precip-etl/internal/observability"
	"github.com/oceanclim/icoads-precip-etl/internal/pipeline"
)

func main() {
	// Optional .env for local runs; environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	mask, err := landmask.Load(cfg.LandMaskPath, grid.NLat, grid.NLon)
	if err != nil {
		logger.Error("failed to load land mask", "error", err, "path", cfg.LandMaskPath)
		os.Exit(1)
	}
	logger.Info("land mask loaded", "land_cells", mask.LandCells())

	builder, err := binning.NewBuilder(binning.Config{
		LatEdges:       binning.DefaultLatEdges(),
		LonEdges:       binning.DefaultLonEdges(),
		YearStart:      cfg.YearStart,
		YearEnd:        cfg.YearEnd,
		Categories:     domain.DefaultCategories(),
		ClipOutOfRange: cfg.OutOfRange == config.OutOfRangeClip,
	})
	if err != nil {
		logger.Error("failed to configure binning", "error", err)
		os.Exit(1)
	}

	convolver, err := convolve.New(domain.DefaultWindows(), mask, cfg.ConvolveWorkers)
	if err != nil {
		logger.Error("failed to configure convolver", "error", err)
		os.Exit(1)
	}

	var (
		source pipeline.Source
		closer io.Closer
	)
	switch cfg.Source {
	case config.SourceKafka:
		reader := kafkaadapter.NewReader(cfg, logger)
		source, closer = reader, reader
		logger.Info("consuming observations from kafka", "topic", cfg.KafkaTopic)
	default:
		reader, err := icoads.Open(cfg.CSVPath, logger)
		if err != nil {
			logger.Error("failed to open observations", "error", err, "path", cfg.CSVPath)
			os.Exit(1)
		}
		source, closer = reader, reader
		logger.Info("reading observations from csv", "path", cfg.CSVPath)
	}

	results, err := store.Open(cfg.ResultsDBPath)
	if err != nil {
		logger.Error("failed to open results db", "error", err, "path", cfg.ResultsDBPath)
		os.Exit(1)
	}

	p, err := pipeline.New(source, builder, convolver, estimate.Binomial{}, results,
		domain.DefaultThresholds(), logger, metrics, cfg.BatchSize)
	if err != nil {
		logger.Error("failed to assemble pipeline", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := p.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("pipeline error", "error", runErr)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closer.Close(); err != nil {
		logger.Error("source close error", "error", err)
	}
	if err := results.Close(); err != nil {
		logger.Error("results db close error", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
