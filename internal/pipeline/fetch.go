package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

// CatalogClient retrieves catalog pages and bulletins from the remote service.
type CatalogClient interface {
	FetchCatalog(ctx context.Context, params url.Values) (string, error)
	FetchDocument(ctx context.Context, ref domain.DocumentReference) ([]byte, error)
}

// DocumentStore persists raw bulletins under derived names.
type DocumentStore interface {
	Ensure(ctx context.Context) error
	Write(ctx context.Context, name string, data []byte) error
}

// FetchOptions configures a Fetcher.
type FetchOptions struct {
	AlertBaseURL string
	Epoch        time.Time
	Workers      int // concurrent downloads; 1 or less is sequential
}

// FetchSummary describes a completed or aborted fetch run.
type FetchSummary struct {
	RunID   string
	Located int
	Stored  int
	Files   []string // stored names in reference order
}

// Fetcher queries the catalog, downloads every referenced bulletin and
// writes it to the document store.
type Fetcher struct {
	client  CatalogClient
	store   DocumentStore
	locator *domain.DocumentLocator
	epoch   time.Time
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFetcher creates a Fetcher with the given collaborators.
func NewFetcher(client CatalogClient, store DocumentStore, opts FetchOptions, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{
		client:  client,
		store:   store,
		locator: domain.NewDocumentLocator(opts.AlertBaseURL),
		epoch:   opts.Epoch,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

// Run performs one fetch run. The first catalog, download or write failure
// aborts the run and is returned; documents already written are kept.
func (f *Fetcher) Run(ctx context.Context, params domain.QueryParams) (FetchSummary, error) {
	start := time.Now()
	summary := FetchSummary{RunID: uuid.NewString()}
	logger := f.logger.With("run_id", summary.RunID)

	err := f.run(ctx, params, logger, &summary)

	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.FetchRunsTotal.WithLabelValues("error").Inc()
		logger.Error("fetch run failed", "error", err, "stored", summary.Stored)
		return summary, err
	}
	f.metrics.FetchRunsTotal.WithLabelValues("success").Inc()
	logger.Info("fetch run complete", "located", summary.Located, "stored", summary.Stored)
	return summary, nil
}

func (f *Fetcher) run(ctx context.Context, params domain.QueryParams, logger *slog.Logger, summary *FetchSummary) error {
	q, err := domain.BuildQuery(params, f.epoch, domain.Now())
	if err != nil {
		return err
	}
	logger.Debug("catalog query",
		"datemin", q.DateMin.Format(time.DateOnly),
		"datemax", q.DateMax.Format(time.DateOnly),
		"magmin", q.MagMin,
		"nmax", q.MaxCount,
	)

	body, err := f.client.FetchCatalog(ctx, q.Values())
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	refs := f.locator.Locate(body)
	summary.Located = len(refs)
	f.metrics.DocumentsLocated.Add(float64(len(refs)))
	logger.Info("found moment tensors", "count", len(refs))

	if err := f.store.Ensure(ctx); err != nil {
		return fmt.Errorf("prepare document store: %w", err)
	}

	names := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, ref := range refs {
		g.Go(func() error {
			name, err := f.fetchOne(gctx, logger, ref)
			if err != nil {
				return err
			}
			names[i] = name
			return nil
		})
	}
	err = g.Wait()

	for _, name := range names {
		if name != "" {
			summary.Files = append(summary.Files, name)
		}
	}
	summary.Stored = len(summary.Files)
	return err
}

func (f *Fetcher) fetchOne(ctx context.Context, logger *slog.Logger, ref domain.DocumentReference) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Info("fetching document", "url", string(ref))
	data, err := f.client.FetchDocument(ctx, ref)
	if err != nil {
		f.metrics.FetchErrors.Inc()
		return "", fmt.Errorf("fetch %s: %w", ref, err)
	}

	name, err := domain.DocumentFilename(data)
	if err != nil {
		f.metrics.FetchErrors.Inc()
		return "", fmt.Errorf("name %s: %w", ref, err)
	}

	if err := f.store.Write(ctx, name, data); err != nil {
		f.metrics.FetchErrors.Inc()
		return "", fmt.Errorf("store %s: %w", ref, err)
	}
	f.metrics.DocumentsStored.Inc()
	return name, nil
}
