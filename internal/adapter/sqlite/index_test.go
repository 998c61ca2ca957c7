package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

func openTestIndex(t *testing.T) (*Index, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetricsForTesting()
	x, err := Open(filepath.Join(t.TempDir(), "db", "archive.db"), m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	return x, m
}

func sampleRecord() domain.MomentTensorRecord {
	return domain.MomentTensorRecord{
		Timestamp:     time.Date(2011, 3, 4, 4, 7, 56, 930_000_000, time.UTC),
		EventID:       "GFZ Event gfz2011eetd",
		SourceURL:     "http://geofon.gfz-potsdam.de/geofon/alerts/gfz2011eetd/mt.txt",
		Region:        "Solomon Islands",
		Magnitude:     5.6,
		MagnitudeUnit: "MW",
		Latitude:      -8.96,
		Longitude:     157.19,
		Depth:         10,
		StationCount:  38,
		Mrr:           0.94e16,
		Mtt:           -0.38e16,
		Mpp:           -0.56e16,
		Mrt:           0.12e16,
		Mrp:           0.33e16,
		Mtp:           -0.71e16,
	}
}

func TestIndex_WriteAndGet(t *testing.T) {
	x, m := openTestIndex(t)
	ctx := context.Background()
	want := sampleRecord()

	require.NoError(t, x.WriteRecords(ctx, []domain.MomentTensorRecord{want}))

	got, err := x.Get(ctx, "gfz2011eetd")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordsIndexed), 0)
}

func TestIndex_UpsertReplacesSameTimestamp(t *testing.T) {
	x, _ := openTestIndex(t)
	ctx := context.Background()

	first := sampleRecord()
	second := sampleRecord()
	second.EventID = "GFZ Event gfz2011zzzz"
	second.Region = "Bougainville Region"

	require.NoError(t, x.WriteRecords(ctx, []domain.MomentTensorRecord{first}))
	require.NoError(t, x.WriteRecords(ctx, []domain.MomentTensorRecord{second}))

	n, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = x.Get(ctx, "gfz2011eetd")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	got, err := x.Get(ctx, "gfz2011zzzz")
	require.NoError(t, err)
	assert.Equal(t, "Bougainville Region", got.Region)
}

func TestIndex_ReindexIsIdempotent(t *testing.T) {
	x, _ := openTestIndex(t)
	ctx := context.Background()

	other := sampleRecord()
	other.Timestamp = other.Timestamp.Add(24 * time.Hour)
	other.EventID = "GFZ Event gfz2011efgh"
	records := []domain.MomentTensorRecord{sampleRecord(), other}

	require.NoError(t, x.WriteRecords(ctx, records))
	require.NoError(t, x.WriteRecords(ctx, records))

	n, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIndex_GetMissing(t *testing.T) {
	x, _ := openTestIndex(t)

	_, err := x.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestIndex_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	x, err := Open(path, observability.NewMetricsForTesting(), logger)
	require.NoError(t, err)
	require.NoError(t, x.WriteRecords(context.Background(), []domain.MomentTensorRecord{sampleRecord()}))
	require.NoError(t, x.Close())

	x, err = Open(path, observability.NewMetricsForTesting(), logger)
	require.NoError(t, err)
	defer x.Close()

	n, err := x.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
