package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// layoutMarkerLine holds "Centroid" in the centroid layout.
const layoutMarkerLine = 8

var timestampLayouts = []string{
	"2006-01-02 15:04:05", // fractional seconds are accepted while parsing
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// decodeState carries the record under construction and the tensor scale
// between field rules.
type decodeState struct {
	alertBaseURL string
	rec          MomentTensorRecord
	scale        float64
}

// fieldRule decodes one record field from one line.
type fieldRule struct {
	line    int
	field   string
	extract func(line string, st *decodeState) error
}

// layout is an ordered list of field rules. Rules run in order, so the
// exponent rule must precede the tensor rules.
type layout struct {
	name  string
	rules []fieldRule
}

var (
	standardLayout = newLayout("standard", 0)
	centroidLayout = newLayout("centroid", 2)
)

// newLayout builds the rule list for a bulletin whose depth, exponent and
// tensor lines sit shift lines below the standard positions.
func newLayout(name string, shift int) layout {
	depthLine := 7 + shift
	scaleLine := 8 + shift
	tensorLine := 9 + shift

	return layout{
		name: name,
		rules: []fieldRule{
			{line: 0, field: "event_id", extract: extractEventID},
			{line: 1, field: "timestamp", extract: extractTimestamp},
			{line: 2, field: "region", extract: func(line string, st *decodeState) error {
				st.rec.Region = line
				return nil
			}},
			{line: 3, field: "latitude", extract: floatAt(1, func(st *decodeState, v float64) { st.rec.Latitude = v })},
			{line: 3, field: "longitude", extract: floatAt(2, func(st *decodeState, v float64) { st.rec.Longitude = v })},
			{line: 4, field: "magnitude_unit", extract: func(line string, st *decodeState) error {
				v, err := fieldAt(strings.Fields(line), 0)
				if err != nil {
					return err
				}
				st.rec.MagnitudeUnit = v
				return nil
			}},
			{line: 4, field: "magnitude", extract: floatAt(1, func(st *decodeState, v float64) { st.rec.Magnitude = v })},
			{line: depthLine, field: "depth", extract: intAt(1, func(st *decodeState, v int) { st.rec.Depth = v })},
			{line: depthLine, field: "station_count", extract: intAt(-1, func(st *decodeState, v int) { st.rec.StationCount = v })},
			{line: scaleLine, field: "exponent", extract: extractScale},
			// All six components are read from the first tensor line:
			// field 1 feeds Mrr/Mpp/Mrp and field 3 feeds Mtt/Mrt/Mtp.
			{line: tensorLine, field: "mrr", extract: tensorAt(1, func(st *decodeState, v float64) { st.rec.Mrr = v })},
			{line: tensorLine, field: "mtt", extract: tensorAt(3, func(st *decodeState, v float64) { st.rec.Mtt = v })},
			{line: tensorLine, field: "mpp", extract: tensorAt(1, func(st *decodeState, v float64) { st.rec.Mpp = v })},
			{line: tensorLine, field: "mrt", extract: tensorAt(3, func(st *decodeState, v float64) { st.rec.Mrt = v })},
			{line: tensorLine, field: "mrp", extract: tensorAt(1, func(st *decodeState, v float64) { st.rec.Mrp = v })},
			{line: tensorLine, field: "mtp", extract: tensorAt(3, func(st *decodeState, v float64) { st.rec.Mtp = v })},
		},
	}
}

// ReportParser decodes GEOFON mt.txt bulletins.
type ReportParser struct {
	alertBaseURL string
}

// NewReportParser creates a parser that rebuilds source URLs under alertBaseURL.
func NewReportParser(alertBaseURL string) *ReportParser {
	return &ReportParser{alertBaseURL: alertBaseURL}
}

// Parse splits text into lines and decodes it. See ParseLines.
func (p *ReportParser) Parse(text string) (MomentTensorRecord, error) {
	return p.ParseLines(SplitLines(text))
}

// ParseLines decodes a bulletin. It either returns a complete record or an
// *ExtractionError for the first field that could not be read.
func (p *ReportParser) ParseLines(lines []string) (MomentTensorRecord, error) {
	l, err := selectLayout(lines)
	if err != nil {
		return MomentTensorRecord{}, err
	}

	st := &decodeState{alertBaseURL: p.alertBaseURL}
	for _, rule := range l.rules {
		if rule.line >= len(lines) {
			return MomentTensorRecord{}, &ExtractionError{Line: rule.line, Field: rule.field, Err: ErrMissingLine}
		}
		if err := rule.extract(lines[rule.line], st); err != nil {
			return MomentTensorRecord{}, &ExtractionError{Line: rule.line, Field: rule.field, Err: err}
		}
	}
	return st.rec, nil
}

// selectLayout picks the centroid layout when line 8 mentions "Centroid".
func selectLayout(lines []string) (layout, error) {
	if layoutMarkerLine >= len(lines) {
		return layout{}, &ExtractionError{Line: layoutMarkerLine, Field: "layout", Err: ErrMissingLine}
	}
	if strings.Contains(lines[layoutMarkerLine], "Centroid") {
		return centroidLayout, nil
	}
	return standardLayout, nil
}

// SplitLines splits text on "\n", "\r\n" or a lone "\r" without a trailing
// empty line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func extractEventID(line string, st *decodeState) error {
	token, err := fieldAt(strings.Fields(line), -1)
	if err != nil {
		return err
	}
	st.rec.EventID = line
	st.rec.SourceURL = AlertURL(st.alertBaseURL, token)
	return nil
}

func extractTimestamp(line string, st *decodeState) error {
	ts, err := ParseBulletinTime(line)
	if err != nil {
		return err
	}
	st.rec.Timestamp = ts
	return nil
}

// ParseBulletinTime parses a two-digit-year bulletin time such as
// "11/03/04 04:07:56.93" as UTC.
func ParseBulletinTime(raw string) (time.Time, error) {
	s := "20" + strings.TrimSpace(strings.ReplaceAll(raw, "/", "-"))
	var firstErr error
	for _, l := range timestampLayouts {
		ts, err := time.Parse(l, s)
		if err == nil {
			return ts.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func extractScale(line string, st *decodeState) error {
	parts := strings.Split(line, "**")
	token, err := fieldAt(strings.Fields(parts[len(parts)-1]), 0)
	if err != nil {
		return err
	}
	exp, err := strconv.Atoi(token)
	if err != nil {
		return err
	}
	scale := math.Pow10(exp)
	if math.IsInf(scale, 0) {
		return fmt.Errorf("%w: 10**%d", ErrNotFinite, exp)
	}
	st.scale = scale
	return nil
}

func floatAt(pos int, set func(*decodeState, float64)) func(string, *decodeState) error {
	return func(line string, st *decodeState) error {
		token, err := fieldAt(strings.Fields(line), pos)
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return err
		}
		if !isFinite(v) {
			return fmt.Errorf("%w: %q", ErrNotFinite, token)
		}
		set(st, v)
		return nil
	}
}

func intAt(pos int, set func(*decodeState, int)) func(string, *decodeState) error {
	return func(line string, st *decodeState) error {
		token, err := fieldAt(strings.Fields(line), pos)
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(token)
		if err != nil {
			return err
		}
		set(st, v)
		return nil
	}
}

// tensorAt reads a tensor value with "=" treated as whitespace and applies
// the scale decoded from the exponent line.
func tensorAt(pos int, set func(*decodeState, float64)) func(string, *decodeState) error {
	return func(line string, st *decodeState) error {
		var raw float64
		read := floatAt(pos, func(_ *decodeState, v float64) { raw = v })
		if err := read(strings.ReplaceAll(line, "=", " "), st); err != nil {
			return err
		}
		scaled := raw * st.scale
		if !isFinite(scaled) {
			return fmt.Errorf("%w: %g * %g", ErrNotFinite, raw, st.scale)
		}
		set(st, scaled)
		return nil
	}
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// fieldAt indexes fields; a negative pos counts from the end.
func fieldAt(fields []string, pos int) (string, error) {
	i := pos
	if pos < 0 {
		i = len(fields) + pos
	}
	if i < 0 || i >= len(fields) {
		return "", fmt.Errorf("%w: want field %d of %d", ErrMissingField, pos, len(fields))
	}
	return fields[i], nil
}
