package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONBecomesDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger("warn", "json")

	assert.Same(t, logger, slog.Default())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	_, isJSON := logger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
}

func TestNewLogger_TextBecomesDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger("info", "TEXT")

	assert.Same(t, logger, slog.Default())
	_, isJSON := logger.Handler().(*slog.JSONHandler)
	assert.False(t, isJSON)
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newTextLogger("debug", &buf)

	logger.Debug("fetching document", "url", "http://example.org/a/mt.txt")

	assert.Contains(t, buf.String(), "fetching document")
	assert.Contains(t, buf.String(), "http://example.org/a/mt.txt")
}

func TestNewTextLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTextLogger("info", &buf)

	logger.Debug("hidden")

	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewMetricsForTesting_RegistersCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsForTesting()
	require.NoError(t, reg.Register(m.DocumentsParsed))

	m.DocumentsParsed.Inc()
	m.CatalogRequests.WithLabelValues("success").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "mt_etl_documents_parsed_total", families[0].GetName())
}
