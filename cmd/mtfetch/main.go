// Command mtfetch downloads GEOFON moment tensor bulletins matching a
// catalog query into the document store.
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

	"github.com/joho/godotenv"

	"github.com/couchcryptid/moment-tensor-etl/internal/adapter/geofon"
	"github.com/couchcryptid/moment-tensor-etl/internal/config"
	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
	"github.com/couchcryptid/moment-tensor-etl/internal/pipeline"
	"github.com/couchcryptid/moment-tensor-etl/internal/storage/backend"
)

type options struct {
	dataDir string
	params  domain.QueryParams
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts, err := parseFlags(os.Args[1:], cfg.DataDir, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger, metrics); err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, metrics *observability.Metrics) error {
	store, err := backend.Open(ctx, cfg, opts.dataDir, logger)
	if err != nil {
		return err
	}

	client := geofon.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, cfg.CatalogRatePerSecond, metrics, logger)
	var catalog pipeline.CatalogClient = client
	if cfg.DocumentCacheSize > 0 {
		catalog = geofon.NewCachedClient(client, cfg.DocumentCacheSize, metrics)
	}

	fetcher := pipeline.NewFetcher(catalog, store, pipeline.FetchOptions{
		AlertBaseURL: cfg.AlertBaseURL,
		Epoch:        cfg.Epoch,
		Workers:      cfg.FetchWorkers,
	}, logger, metrics)

	_, err = fetcher.Run(ctx, opts.params)
	return err
}

func parseFlags(args []string, defaultDir string, output io.Writer) (options, error) {
	opts := options{dataDir: defaultDir, params: domain.DefaultQueryParams()}
	p := &opts.params

	fs := flag.NewFlagSet("mtfetch", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.dataDir, "d", defaultDir, "output directory")
	fs.StringVar(&p.DateMin, "datemin", "", "earliest event date, YYYY-MM-DD (default 2011-01-01)")
	fs.StringVar(&p.DateMin, "s", "", "shorthand for -datemin")
	fs.StringVar(&p.DateMax, "datemax", "", "latest event date, YYYY-MM-DD (default today)")
	fs.StringVar(&p.DateMax, "e", "", "shorthand for -datemax")
	fs.Float64Var(&p.MagMin, "magmin", p.MagMin, "minimum magnitude")
	fs.Float64Var(&p.MagMin, "m", p.MagMin, "shorthand for -magmin")
	fs.IntVar(&p.MaxCount, "nmax", p.MaxCount, "maximum number of catalog entries")
	fs.IntVar(&p.MaxCount, "n", p.MaxCount, "shorthand for -nmax")
	fs.Float64Var(&p.LatMin, "latmin", p.LatMin, "minimum latitude")
	fs.Float64Var(&p.LatMax, "latmax", p.LatMax, "maximum latitude")
	fs.Float64Var(&p.LonMin, "lonmin", p.LonMin, "minimum longitude")
	fs.Float64Var(&p.LonMax, "lonmax", p.LonMax, "maximum longitude")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if p.MagMin < 0 {
		return options{}, errors.New("magmin must be >= 0")
	}
	if p.MaxCount < 1 {
		return options{}, errors.New("nmax must be a positive integer")
	}
	if opts.dataDir == "" {
		return options{}, errors.New("output directory must not be empty")
	}
	return opts, nil
}
