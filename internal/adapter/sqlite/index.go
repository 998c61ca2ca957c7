// Package sqlite keeps a queryable copy of the decoded archive in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

const timeLayout = time.RFC3339Nano

// Index stores records in SQLite. It implements pipeline.RecordWriter.
type Index struct {
	conn    *sql.DB
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, metrics *observability.Metrics, logger *slog.Logger) (*Index, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(createRecordsTable); err != nil {
		conn.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("sqlite index opened", "path", path)
	return &Index{conn: conn, metrics: metrics, logger: logger}, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.conn.Close()
}

// WriteRecords upserts records in one transaction.
func (x *Index) WriteRecords(ctx context.Context, records []domain.MomentTensorRecord) error {
	tx, err := x.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertRecord)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	indexedAt := domain.Now().UTC().Format(timeLayout)
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Timestamp.UTC().Format(timeLayout),
			r.EventID,
			r.EventToken(),
			r.SourceURL,
			r.Region,
			r.Magnitude,
			r.MagnitudeUnit,
			r.Latitude,
			r.Longitude,
			r.Depth,
			r.StationCount,
			r.Mrr, r.Mtt, r.Mpp, r.Mrt, r.Mrp, r.Mtp,
			indexedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", r.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	x.metrics.RecordsIndexed.Add(float64(len(records)))
	x.logger.Debug("records indexed", "count", len(records))
	return nil
}

// Count returns the number of indexed records.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.conn.QueryRowContext(ctx, countRecords).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Get returns the latest record for a short event identifier such as
// gfz2011eetd, or domain.ErrRecordNotFound.
func (x *Index) Get(ctx context.Context, token string) (domain.MomentTensorRecord, error) {
	var (
		r      domain.MomentTensorRecord
		origin string
	)
	err := x.conn.QueryRowContext(ctx, selectByToken, token).Scan(
		&origin, &r.EventID, &r.SourceURL, &r.Region,
		&r.Magnitude, &r.MagnitudeUnit, &r.Latitude, &r.Longitude, &r.Depth, &r.StationCount,
		&r.Mrr, &r.Mtt, &r.Mpp, &r.Mrt, &r.Mrp, &r.Mtp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MomentTensorRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.MomentTensorRecord{}, fmt.Errorf("get %s: %w", token, err)
	}

	r.Timestamp, err = time.Parse(timeLayout, origin)
	if err != nil {
		return domain.MomentTensorRecord{}, fmt.Errorf("parse origin time %q: %w", origin, err)
	}
	return r, nil
}
