package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/moment-tensor-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/moment-tensor-etl/internal/adapter/kafka"
	"github.com/couchcryptid/moment-tensor-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/moment-tensor-etl/internal/config"
	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
	"github.com/couchcryptid/moment-tensor-etl/internal/pipeline"
	"github.com/couchcryptid/moment-tensor-etl/internal/storage/backend"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	loader := pipeline.NewArchiveLoader(store, domain.NewReportParser(cfg.AlertBaseURL), cfg.ParseWorkers, logger, metrics)

	var sinks []pipeline.Sink

	// Optional SQLite index (SQLITE_PATH). When present it also answers
	// single-event lookups.
	var (
		index  *sqlite.Index
		lookup httpadapter.EventLookup
	)
	if cfg.SQLitePath != "" {
		index, err = sqlite.Open(cfg.SQLitePath, metrics, logger)
		if err != nil {
			logger.Error("failed to open sqlite index", "error", err)
			os.Exit(1)
		}
		if n, err := index.Count(ctx); err == nil {
			logger.Info("sqlite index rows", "count", n)
		}
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Writer: index})
		lookup = index
	} else {
		logger.Info("sqlite index disabled")
	}

	// Optional Kafka publisher (KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Writer: writer})
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	svc := pipeline.New(loader, sinks, cfg.ReloadInterval, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, lookup, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start archive sync.
	go func() {
		if err := svc.Run(ctx); err != nil {
			logger.Error("archive service error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if index != nil {
		if err := index.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
