package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testEpoch = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
	testNow   = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
)

func TestBuildQuery_Defaults(t *testing.T) {
	q, err := BuildQuery(DefaultQueryParams(), testEpoch, testNow)
	require.NoError(t, err)

	assert.Equal(t, testEpoch, q.DateMin)
	assert.Equal(t, time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC), q.DateMax)
	assert.Equal(t, -90.0, q.LatMin)
	assert.Equal(t, 90.0, q.LatMax)
	assert.Equal(t, -180.0, q.LonMin)
	assert.Equal(t, 180.0, q.LonMax)
	assert.Equal(t, 0.0, q.MagMin)
	assert.Equal(t, 999999, q.MaxCount)
}

func TestBuildQuery_ClampsDateMinToEpoch(t *testing.T) {
	p := DefaultQueryParams()
	p.DateMin = "1999-06-01"

	q, err := BuildQuery(p, testEpoch, testNow)
	require.NoError(t, err)
	assert.Equal(t, testEpoch, q.DateMin)
}

func TestBuildQuery_KeepsDateMinAfterEpoch(t *testing.T) {
	p := DefaultQueryParams()
	p.DateMin = "2015-02-03T10:11:12"
	p.DateMax = "2016-01-01"

	q, err := BuildQuery(p, testEpoch, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 2, 3, 0, 0, 0, 0, time.UTC), q.DateMin)
	assert.Equal(t, time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), q.DateMax)
}

func TestBuildQuery_BoundsPassThroughUnvalidated(t *testing.T) {
	p := QueryParams{LatMin: 40, LatMax: -10, LonMin: 170.5, LonMax: -170.5, MagMin: 6.5, MaxCount: 3}

	q, err := BuildQuery(p, testEpoch, testNow)
	require.NoError(t, err)
	assert.Equal(t, 40.0, q.LatMin)
	assert.Equal(t, -10.0, q.LatMax)
	assert.Equal(t, 170.5, q.LonMin)
	assert.Equal(t, -170.5, q.LonMax)
	assert.Equal(t, 6.5, q.MagMin)
	assert.Equal(t, 3, q.MaxCount)
}

func TestBuildQuery_MalformedDate(t *testing.T) {
	p := DefaultQueryParams()
	p.DateMax = "26/04/2024"

	_, err := BuildQuery(p, testEpoch, testNow)
	require.Error(t, err)

	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "datemax", qErr.Param)
	assert.Equal(t, "26/04/2024", qErr.Value)
}

func TestClampDate_Idempotent(t *testing.T) {
	dates := []time.Time{
		time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
		testEpoch,
		time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		once := ClampDate(d, testEpoch)
		twice := ClampDate(once, testEpoch)
		assert.Equal(t, once, twice)
		assert.False(t, once.Before(testEpoch))
	}
}

func TestCatalogQuery_Values(t *testing.T) {
	q, err := BuildQuery(QueryParams{
		DateMin:  "2012-01-01",
		DateMax:  "2012-12-31",
		LatMin:   -90,
		LatMax:   90,
		LonMin:   -180,
		LonMax:   180,
		MagMin:   5.5,
		MaxCount: 10,
	}, testEpoch, testNow)
	require.NoError(t, err)

	v := q.Values()
	assert.Equal(t, "html", v.Get("fmt"))
	assert.Equal(t, "2012-01-01", v.Get("datemin"))
	assert.Equal(t, "2012-12-31", v.Get("datemax"))
	assert.Equal(t, "-90", v.Get("latmin"))
	assert.Equal(t, "90", v.Get("latmax"))
	assert.Equal(t, "-180", v.Get("lonmin"))
	assert.Equal(t, "180", v.Get("lonmax"))
	assert.Equal(t, "5.5", v.Get("magmin"))
	assert.Equal(t, "10", v.Get("nmax"))
}

func TestNow_UsesInjectedClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(testNow)
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	q, err := BuildQuery(DefaultQueryParams(), testEpoch, Now())
	require.NoError(t, err)
	assert.Equal(t, "2024-04-26", q.Values().Get("datemax"))
}
