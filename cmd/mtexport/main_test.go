package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
)

func exportRecords() []domain.MomentTensorRecord {
	return []domain.MomentTensorRecord{{
		Timestamp:     time.Date(2011, 3, 4, 4, 7, 56, 930_000_000, time.UTC),
		EventID:       "GFZ Event gfz2011eetd",
		Region:        "Solomon Islands",
		Magnitude:     5.6,
		MagnitudeUnit: "MW",
		Depth:         10,
		Mrr:           9.4e15,
	}}
}

func TestEncode_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, "json", exportRecords()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "GFZ Event gfz2011eetd", got[0]["event_id"])
	assert.Equal(t, "2011-03-04T04:07:56.93Z", got[0]["timestamp"])
}

func TestEncode_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, "yaml", exportRecords()))

	assert.Contains(t, buf.String(), "event_id: GFZ Event gfz2011eetd")
	assert.Contains(t, buf.String(), "magnitude_unit: MW")

	var got []domain.MomentTensorRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].Depth)
	assert.True(t, exportRecords()[0].Timestamp.Equal(got[0].Timestamp))
}

func TestEncode_UnknownFormat(t *testing.T) {
	assert.Error(t, encode(&bytes.Buffer{}, "csv", nil))
}

func TestExport_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	require.NoError(t, export(path, "json", exportRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []domain.MomentTensorRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "GFZ Event gfz2011eetd", got[0].EventID)
}

func TestExport_CreateFailure(t *testing.T) {
	err := export(filepath.Join(t.TempDir(), "missing", "archive.json"), "json", exportRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output file")
}

func TestExport_EncodeFailureIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.txt")
	err := export(path, "csv", exportRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
