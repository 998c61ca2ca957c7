package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

// DocumentExt is the extension of persisted bulletins.
const DocumentExt = ".txt"

// DocumentSource enumerates and reads persisted bulletins.
type DocumentSource interface {
	List(ctx context.Context, ext string) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// ArchiveLoader decodes every persisted bulletin into a ReportArchive.
type ArchiveLoader struct {
	source  DocumentSource
	parser  *domain.ReportParser
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewArchiveLoader creates a loader. workers bounds concurrent reads and
// parses; 1 or less is sequential.
func NewArchiveLoader(source DocumentSource, parser *domain.ReportParser, workers int, logger *slog.Logger, metrics *observability.Metrics) *ArchiveLoader {
	if workers < 1 {
		workers = 1
	}
	return &ArchiveLoader{
		source:  source,
		parser:  parser,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

type parseResult struct {
	rec domain.MomentTensorRecord
	err error
}

// Load reads and parses every document. Unreadable or malformed documents
// are logged and skipped. Records are inserted in listing order, so a later
// document with a duplicate timestamp replaces the earlier one. Only a
// listing failure or cancellation returns an error.
func (l *ArchiveLoader) Load(ctx context.Context) (*domain.ReportArchive, error) {
	start := time.Now()
	l.metrics.ArchiveLoadRuns.Inc()

	names, err := l.source.List(ctx, DocumentExt)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	results := make([]parseResult, len(names))
	var g errgroup.Group
	g.SetLimit(l.workers)
	for i, name := range names {
		g.Go(func() error {
			results[i] = l.parseOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archive := domain.NewReportArchive()
	for i, res := range results {
		if res.err != nil {
			l.logger.Warn("skipping document", "file", names[i], "error", res.err)
			l.metrics.ParseErrors.Inc()
			continue
		}
		l.metrics.DocumentsParsed.Inc()
		if prev, replaced := archive.Put(res.rec); replaced {
			l.logger.Warn("duplicate timestamp, replacing record",
				"file", names[i],
				"timestamp", res.rec.Timestamp,
				"previous_event_id", prev.EventID,
				"event_id", res.rec.EventID,
			)
			l.metrics.DuplicateRecords.Inc()
		}
	}

	l.metrics.ArchiveRecords.Set(float64(archive.Len()))
	l.metrics.ArchiveLoadDuration.Observe(time.Since(start).Seconds())
	l.logger.Info("archive loaded", "files", len(names), "records", archive.Len())
	return archive, nil
}

func (l *ArchiveLoader) parseOne(ctx context.Context, name string) parseResult {
	if err := ctx.Err(); err != nil {
		return parseResult{err: err}
	}
	data, err := l.source.Read(ctx, name)
	if err != nil {
		return parseResult{err: err}
	}
	rec, err := l.parser.Parse(string(data))
	return parseResult{rec: rec, err: err}
}
