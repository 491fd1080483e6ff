// Command collector samples MGM radar images on a fixed interval and keeps
// a CSV history of per-site rain pixel counts.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/radar-rain-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/radar-rain-etl/internal/adapter/gcs"
	httpadapter "github.com/couchcryptid/radar-rain-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/radar-rain-etl/internal/adapter/kafka"
	"github.com/couchcryptid/radar-rain-etl/internal/adapter/radar"
	"github.com/couchcryptid/radar-rain-etl/internal/config"
	"github.com/couchcryptid/radar-rain-etl/internal/observability"
	"github.com/couchcryptid/radar-rain-etl/internal/pipeline"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env file is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional GCS mirror of every saved snapshot.
	var mirror csvstore.Uploader
	var gcsMirror *gcs.Mirror
	if cfg.GCSBucket != "" {
		gcsMirror, err = gcs.NewMirror(ctx, cfg.GCSBucket, cfg.GCSObject, logger)
		if err != nil {
			logger.Error("failed to create gcs mirror", "error", err)
			os.Exit(1)
		}
		mirror = gcsMirror
		logger.Info("gcs mirror enabled", "uri", gcsMirror.URI())
	}
	store := csvstore.NewFileStore(cfg.HistoryPath, mirror, logger)

	// Optional Kafka publishing of every round's samples.
	runID := uuid.NewString()
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, runID, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	client := radar.NewClient(cfg.FetchTimeout, cfg.FetchCacheSize, metrics, logger)
	collector := pipeline.New(cfg, client, store, publisher, clockwork.NewRealClock(), logger, metrics)

	if cfg.HistoryResume {
		history, err := store.Load()
		if err != nil {
			logger.Error("failed to resume history", "path", cfg.HistoryPath, "error", err)
			os.Exit(1)
		}
		collector.SetHistory(history)
		logger.Info("history resumed", "path", cfg.HistoryPath, "rows", history.Len(), "columns", len(history.Columns()))
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, collector, collector, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start collector loop.
	logger.Info("collector run", "run_id", runID, "history_path", cfg.HistoryPath)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Run(ctx); err != nil {
			logger.Error("collector error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("collector did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if gcsMirror != nil {
		if err := gcsMirror.Close(); err != nil {
			logger.Error("gcs client close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
