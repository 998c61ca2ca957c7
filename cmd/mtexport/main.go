// Command mtexport decodes every stored bulletin and writes the archive as
// JSON or YAML.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

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

	fs := flag.NewFlagSet("mtexport", flag.ContinueOnError)
	dir := fs.String("d", cfg.DataDir, "bulletin directory")
	format := fs.String("format", "json", "output format: json or yaml")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	ctx := context.Background()

	store, err := backend.Open(ctx, cfg, *dir, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	loader := pipeline.NewArchiveLoader(store, domain.NewReportParser(cfg.AlertBaseURL), cfg.ParseWorkers, logger, metrics)

	archive, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load archive", "error", err)
		os.Exit(1)
	}

	if err := export(*out, *format, archive.Records()); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

// export encodes records to path, or to stdout when path is empty. The file
// is closed before returning so a failed flush is reported.
func export(path, format string, records []domain.MomentTensorRecord) (err error) {
	if path == "" {
		return encode(os.Stdout, format, records)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close output file: %w", cerr))
		}
	}()
	return encode(f, format, records)
}

func encode(w io.Writer, format string, records []domain.MomentTensorRecord) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: want json or yaml", format)
	}
}
