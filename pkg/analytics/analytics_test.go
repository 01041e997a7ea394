package analytics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfollowers/pkg/models"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func snap(age time.Duration, tech, medical, other int) models.Snapshot {
	return models.NewSnapshot(base.Add(-age), models.Counts{Tech: tech, Medical: medical, Other: other})
}

func TestAggregate(t *testing.T) {
	counts := Aggregate([]models.Follower{
		{Category: models.CategoryTechVC},
		{Category: models.CategoryTechVC},
		{Category: models.CategoryMedical},
		{},
	})
	assert.Equal(t, models.Counts{Total: 4, Tech: 2, Medical: 1, Other: 1}, counts)
}

func TestDeltasEmpty(t *testing.T) {
	r := Deltas(nil)
	assert.Nil(t, r.Latest)
	assert.Nil(t, r.Daily)
}

func TestDeltasPicksMostRecentQualifyingReference(t *testing.T) {
	timeline := []models.Snapshot{
		snap(40*24*time.Hour, 10, 10, 10),
		snap(8*24*time.Hour, 20, 10, 10),
		snap(7*24*time.Hour, 40, 10, 10),
		snap(30*time.Hour, 50, 10, 10),
		snap(24*time.Hour, 80, 10, 10),
		snap(2*time.Hour, 90, 10, 10),
		snap(0, 100, 10, 0),
	}

	r := Deltas(timeline)
	require.NotNil(t, r.Latest)
	assert.Equal(t, base, r.Latest.Timestamp)

	require.NotNil(t, r.Daily)
	assert.Equal(t, 80, r.Daily.Reference.Tech, "exactly 24h old qualifies")
	require.NotNil(t, r.Weekly)
	assert.Equal(t, 40, r.Weekly.Reference.Tech)
	require.NotNil(t, r.Monthly)
	assert.Equal(t, 10, r.Monthly.Reference.Tech)

	require.NotNil(t, r.Daily.Change.Tech)
	assert.InDelta(t, 25.0, *r.Daily.Change.Tech, 1e-9)
	require.NotNil(t, r.Daily.Change.Medical)
	assert.InDelta(t, 0.0, *r.Daily.Change.Medical, 1e-9)
	require.NotNil(t, r.Daily.Change.Other)
	assert.InDelta(t, -100.0, *r.Daily.Change.Other, 1e-9)
	require.NotNil(t, r.Monthly.Change.Total)
	assert.InDelta(t, 266.6666666, *r.Monthly.Change.Total, 1e-6)

	assert.Same(t, r.Weekly, r.ByHorizon(Weekly))
}

func TestDeltasNoQualifyingReference(t *testing.T) {
	r := Deltas([]models.Snapshot{
		snap(23*time.Hour, 1, 1, 1),
		snap(0, 2, 2, 2),
	})
	assert.NotNil(t, r.Latest)
	assert.Nil(t, r.Daily)
	assert.Nil(t, r.Weekly)
	assert.Nil(t, r.Monthly)
}

func TestDeltasZeroReferenceIsNil(t *testing.T) {
	r := Deltas([]models.Snapshot{
		snap(48*time.Hour, 0, 5, 0),
		snap(0, 3, 5, 0),
	})

	require.NotNil(t, r.Daily)
	assert.Nil(t, r.Daily.Change.Tech)
	assert.Nil(t, r.Daily.Change.Other)
	require.NotNil(t, r.Daily.Change.Medical)
	assert.Equal(t, 0.0, *r.Daily.Change.Medical)
}

func TestDeltasUnorderedInput(t *testing.T) {
	r := Deltas([]models.Snapshot{
		snap(0, 10, 0, 0),
		snap(72*time.Hour, 5, 0, 0),
		snap(25*time.Hour, 8, 0, 0),
	})
	require.NotNil(t, r.Daily)
	assert.Equal(t, 8, r.Daily.Reference.Tech)
	assert.Equal(t, base, r.Latest.Timestamp)
}

func TestPercentChange(t *testing.T) {
	assert.Nil(t, PercentChange(5, 0))
	require.NotNil(t, PercentChange(5, 10))
	assert.Equal(t, -50.0, *PercentChange(5, 10))
}

func TestLineSeries(t *testing.T) {
	timeline := []models.Snapshot{
		snap(2*time.Hour, 10, 5, 0),
		snap(time.Hour, 20, 10, 5),
		snap(0, 40, 20, 10),
	}

	chart, err := LineSeries(timeline, 300, 100)
	require.NoError(t, err)
	assert.Equal(t, 40, chart.Max)

	require.Len(t, chart.Tech, 3)
	assert.Equal(t, []Point{{0, 75}, {150, 50}, {300, 0}}, chart.Tech)
	assert.Equal(t, Point{X: 300, Y: 50}, chart.Medical[2])
	assert.Equal(t, Point{X: 0, Y: 100}, chart.Other[0])
}

func TestLineSeriesNeedsTwoSnapshots(t *testing.T) {
	_, err := LineSeries([]models.Snapshot{snap(0, 1, 1, 1)}, 300, 100)
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = LineSeries(nil, 300, 100)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestLineSeriesAllZero(t *testing.T) {
	chart, err := LineSeries([]models.Snapshot{snap(time.Hour, 0, 0, 0), snap(0, 0, 0, 0)}, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 10, Y: 10}, chart.Tech[1])
}

func TestPieArcs(t *testing.T) {
	pie, err := PieArcs(models.Counts{Tech: 2, Medical: 1, Other: 1}, 100)
	require.NoError(t, err)
	require.Len(t, pie.Arcs, 3)

	assert.Equal(t, Arc{Category: models.CategoryTechVC, Count: 2, Length: 50, Offset: 0}, pie.Arcs[0])
	assert.Equal(t, Arc{Category: models.CategoryMedical, Count: 1, Length: 25, Offset: -50}, pie.Arcs[1])
	assert.Equal(t, Arc{Category: models.CategoryOther, Count: 1, Length: 25, Offset: -75}, pie.Arcs[2])
}

func TestPieArcsEmpty(t *testing.T) {
	_, err := PieArcs(models.Counts{}, 100)
	assert.ErrorIs(t, err, ErrEmptyPie)
}

func TestRenderSVG(t *testing.T) {
	line, err := LineSeries([]models.Snapshot{snap(time.Hour, 1, 2, 3), snap(0, 2, 2, 2)}, 300, 100)
	require.NoError(t, err)
	pie, err := PieArcs(models.Counts{Tech: 1, Medical: 1}, 100)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, &line, &pie))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("<polyline")))
	// the zero-length Other arc is skipped
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("<circle")))
	assert.Contains(t, out, "Tech/VC: 1")

	buf.Reset()
	require.NoError(t, RenderSVG(&buf, nil, nil))
	assert.Contains(t, buf.String(), ErrInsufficientHistory.Error())
	assert.Contains(t, buf.String(), ErrEmptyPie.Error())
}
