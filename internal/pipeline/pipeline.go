package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
)

// ArchiveSource produces a freshly decoded archive.
type ArchiveSource interface {
	Load(ctx context.Context) (*domain.ReportArchive, error)
}

// RecordWriter receives every record of a loaded archive.
type RecordWriter interface {
	WriteRecords(ctx context.Context, records []domain.MomentTensorRecord) error
}

// Sink is a named RecordWriter.
type Sink struct {
	Name   string
	Writer RecordWriter
}

// Service keeps the archive loaded and pushes it to every sink, reloading
// on a fixed interval when one is set.
type Service struct {
	source         ArchiveSource
	sinks          []Sink
	reloadInterval time.Duration
	logger         *slog.Logger
	archive        atomic.Pointer[domain.ReportArchive]
	ready          atomic.Bool
}

// New creates a Service. A zero reloadInterval syncs once and then idles
// until the context is cancelled.
func New(source ArchiveSource, sinks []Sink, reloadInterval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		source:         source,
		sinks:          sinks,
		reloadInterval: reloadInterval,
		logger:         logger,
	}
}

// CheckReadiness returns nil once an archive has been loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("archive has not been loaded yet")
	}
	return nil
}

// Records returns the current archive ordered by timestamp.
func (s *Service) Records() []domain.MomentTensorRecord {
	a := s.archive.Load()
	if a == nil {
		return nil
	}
	return a.Records()
}

// Record looks up a record by its short event identifier.
func (s *Service) Record(token string) (domain.MomentTensorRecord, bool) {
	a := s.archive.Load()
	if a == nil {
		return domain.MomentTensorRecord{}, false
	}
	return a.FindEvent(token)
}

// Run syncs the archive until the context is cancelled. Failed syncs are
// retried with exponential backoff.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("archive service started", "sinks", len(s.sinks), "reload_interval", s.reloadInterval)

	// Start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if err := s.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("archive sync failed", "error", err)
			if !retry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		wait := s.reloadInterval
		if wait <= 0 {
			<-ctx.Done()
			s.logger.Info("archive service stopping", "reason", ctx.Err())
			return nil
		}
		if !retry.SleepWithContext(ctx, wait) {
			s.logger.Info("archive service stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Sync loads the archive once, publishes it for readers and writes it to
// each sink in order.
func (s *Service) Sync(ctx context.Context) error {
	archive, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	s.archive.Store(archive)
	s.ready.Store(true)

	records := archive.Records()
	for _, sink := range s.sinks {
		if err := sink.Writer.WriteRecords(ctx, records); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name, err)
		}
		s.logger.Info("archive written", "sink", sink.Name, "records", len(records))
	}
	return nil
}
