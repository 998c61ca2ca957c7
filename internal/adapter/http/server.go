package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
)

// RecordReader serves the currently loaded archive.
type RecordReader interface {
	Records() []domain.MomentTensorRecord
	Record(token string) (domain.MomentTensorRecord, bool)
}

// Archive is the service state the server exposes.
type Archive interface {
	sharedobs.ReadinessChecker
	RecordReader
}

// EventLookup finds one record by its short event identifier, returning
// domain.ErrRecordNotFound when nothing matches.
type EventLookup interface {
	Get(ctx context.Context, token string) (domain.MomentTensorRecord, error)
}

type archiveLookup struct {
	reader RecordReader
}

func (a archiveLookup) Get(_ context.Context, token string) (domain.MomentTensorRecord, error) {
	if rec, ok := a.reader.Record(token); ok {
		return rec, nil
	}
	return domain.MomentTensorRecord{}, domain.ErrRecordNotFound
}

// Server exposes health, readiness, metrics, and archive HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /records routes. Single-event lookups go to lookup when it is non-nil and
// to the loaded archive otherwise.
func NewServer(addr string, archive Archive, lookup EventLookup, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	if lookup == nil {
		lookup = archiveLookup{reader: archive}
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(archive))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /records", handleRecords(archive))
	mux.HandleFunc("GET /records/{eventID}", s.handleRecord(lookup))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRecords lists records in timestamp order. Optional query parameters:
// magmin (minimum magnitude) and limit (maximum number of records).
func handleRecords(reader RecordReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		magMin := 0.0
		if v := q.Get("magmin"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid magmin"})
				return
			}
			magMin = f
		}
		limit := -1
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			limit = n
		}

		out := make([]domain.MomentTensorRecord, 0)
		for _, rec := range reader.Records() {
			if limit >= 0 && len(out) >= limit {
				break
			}
			if rec.Magnitude < magMin {
				continue
			}
			out = append(out, rec)
		}
		sharedobs.WriteJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleRecord(lookup EventLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("eventID")
		rec, err := lookup.Get(r.Context(), id)
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "event " + id + " not found"})
		case err != nil:
			s.logger.Error("event lookup failed", "event", id, "error", err)
			sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		default:
			sharedobs.WriteJSON(w, http.StatusOK, rec)
		}
	}
}
