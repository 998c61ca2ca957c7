package domain

import (
	"net/url"
	"strconv"
	"time"
)

const catalogDateLayout = "2006-01-02"

var queryDateLayouts = []string{
	catalogDateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// BuildQuery normalizes raw filter input. An empty DateMin starts at epoch,
// an empty DateMax ends at now's date, and DateMin is clamped up to epoch.
// Geographic and magnitude bounds are copied unchanged.
func BuildQuery(p QueryParams, epoch, now time.Time) (CatalogQuery, error) {
	dateMin := calendarDate(epoch)
	if p.DateMin != "" {
		d, err := parseQueryDate(p.DateMin)
		if err != nil {
			return CatalogQuery{}, &QueryError{Param: "datemin", Value: p.DateMin, Err: err}
		}
		dateMin = d
	}

	dateMax := calendarDate(now)
	if p.DateMax != "" {
		d, err := parseQueryDate(p.DateMax)
		if err != nil {
			return CatalogQuery{}, &QueryError{Param: "datemax", Value: p.DateMax, Err: err}
		}
		dateMax = d
	}

	return CatalogQuery{
		DateMin:  ClampDate(dateMin, epoch),
		DateMax:  dateMax,
		LatMin:   p.LatMin,
		LatMax:   p.LatMax,
		LonMin:   p.LonMin,
		LonMax:   p.LonMax,
		MagMin:   p.MagMin,
		MaxCount: p.MaxCount,
	}, nil
}

// ClampDate returns d, or epoch's calendar date when d is earlier.
func ClampDate(d, epoch time.Time) time.Time {
	floor := calendarDate(epoch)
	if d.Before(floor) {
		return floor
	}
	return d
}

// Values renders the query as list.php parameters.
func (q CatalogQuery) Values() url.Values {
	return url.Values{
		"fmt":     {"html"},
		"datemin": {q.DateMin.Format(catalogDateLayout)},
		"datemax": {q.DateMax.Format(catalogDateLayout)},
		"latmin":  {formatFloat(q.LatMin)},
		"latmax":  {formatFloat(q.LatMax)},
		"lonmin":  {formatFloat(q.LonMin)},
		"lonmax":  {formatFloat(q.LonMax)},
		"magmin":  {formatFloat(q.MagMin)},
		"nmax":    {strconv.Itoa(q.MaxCount)},
	}
}

func parseQueryDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range queryDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return calendarDate(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func calendarDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
