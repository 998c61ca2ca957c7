package domain

import (
	"sort"
	"strings"
	"time"
)

// QueryParams holds raw catalog filter input as supplied by a caller.
// Empty dates select the defaults (catalog epoch, today).
type QueryParams struct {
	DateMin  string
	DateMax  string
	LatMin   float64
	LatMax   float64
	LonMin   float64
	LonMax   float64
	MagMin   float64
	MaxCount int
}

// DefaultQueryParams returns the unrestricted filter: the whole globe, any
// magnitude, effectively no entry cap.
func DefaultQueryParams() QueryParams {
	return QueryParams{
		LatMin:   -90,
		LatMax:   90,
		LonMin:   -180,
		LonMax:   180,
		MagMin:   0,
		MaxCount: 999999,
	}
}

// CatalogQuery is the normalized filter sent to the catalog list endpoint.
// DateMin is never earlier than the catalog epoch. Bounds are passed through
// as given; min <= max is not checked.
type CatalogQuery struct {
	DateMin  time.Time
	DateMax  time.Time
	LatMin   float64
	LatMax   float64
	LonMin   float64
	LonMax   float64
	MagMin   float64
	MaxCount int
}

// DocumentReference is the URL of a single event bulletin,
// <alert base>/<event id>/mt.txt.
type DocumentReference string

// MomentTensorRecord is one decoded bulletin.
type MomentTensorRecord struct {
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	EventID       string    `json:"event_id" yaml:"event_id"`
	SourceURL     string    `json:"source_url" yaml:"source_url"`
	Region        string    `json:"region" yaml:"region"`
	Magnitude     float64   `json:"magnitude" yaml:"magnitude"`
	MagnitudeUnit string    `json:"magnitude_unit" yaml:"magnitude_unit"`
	Latitude      float64   `json:"latitude" yaml:"latitude"`
	Longitude     float64   `json:"longitude" yaml:"longitude"`
	Depth         int       `json:"depth" yaml:"depth"`
	StationCount  int       `json:"station_count" yaml:"station_count"`

	// Tensor components, already multiplied by the bulletin's scale.
	Mrr float64 `json:"mrr" yaml:"mrr"`
	Mtt float64 `json:"mtt" yaml:"mtt"`
	Mpp float64 `json:"mpp" yaml:"mpp"`
	Mrt float64 `json:"mrt" yaml:"mrt"`
	Mrp float64 `json:"mrp" yaml:"mrp"`
	Mtp float64 `json:"mtp" yaml:"mtp"`
}

// EventToken returns the short catalog identifier, the last word of the
// bulletin's first line (e.g. gfz2011eetd).
func (r MomentTensorRecord) EventToken() string {
	fields := strings.Fields(r.EventID)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ReportArchive maps origin timestamps to records. Two bulletins with the
// same timestamp collapse into one entry; the last one stored wins.
type ReportArchive struct {
	records map[time.Time]MomentTensorRecord
}

// NewReportArchive returns an empty archive.
func NewReportArchive() *ReportArchive {
	return &ReportArchive{records: make(map[time.Time]MomentTensorRecord)}
}

// Put stores rec under its timestamp. It returns the record it replaced, if any.
func (a *ReportArchive) Put(rec MomentTensorRecord) (MomentTensorRecord, bool) {
	key := rec.Timestamp.UTC()
	prev, replaced := a.records[key]
	a.records[key] = rec
	return prev, replaced
}

// Get returns the record stored for ts.
func (a *ReportArchive) Get(ts time.Time) (MomentTensorRecord, bool) {
	rec, ok := a.records[ts.UTC()]
	return rec, ok
}

// Len returns the number of distinct timestamps in the archive.
func (a *ReportArchive) Len() int {
	return len(a.records)
}

// FindEvent returns the record whose EventToken equals token.
func (a *ReportArchive) FindEvent(token string) (MomentTensorRecord, bool) {
	for _, rec := range a.records {
		if rec.EventToken() == token {
			return rec, true
		}
	}
	return MomentTensorRecord{}, false
}

// Records returns all records ordered by timestamp.
func (a *ReportArchive) Records() []MomentTensorRecord {
	out := make([]MomentTensorRecord, 0, len(a.records))
	for _, rec := range a.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
