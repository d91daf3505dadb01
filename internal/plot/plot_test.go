package plot

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

var testID = seedid.StreamID{Network: "NV", Station: "VOLC", Location: "00", Channel: "EHZ"}

func sampleTable() *storage.Table {
	base := time.Date(2012, 4, 4, 0, 0, 0, 0, time.UTC)
	t := &storage.Table{ID: testID, Year: 2012, Metrics: []string{"rsam", "fratio"}}
	for i := 0; i < 10; i++ {
		v := float64(i)
		if i == 4 || i == 5 {
			v = math.NaN()
		}
		t.Records = append(t.Records, types.MetricRecord{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Values: []float64{v, -v},
		})
	}
	return t
}

func TestBuildSeriesSelectsColumns(t *testing.T) {
	series, err := BuildSeries(sampleTable(), Request{Metrics: []string{"fratio"}})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "fratio", series[0].Name)
	require.Len(t, series[0].Values, 10)
	assert.Equal(t, -3.0, series[0].Values[3])
	assert.True(t, math.IsNaN(series[0].Values[4]))
}

func TestBuildSeriesTimeFilter(t *testing.T) {
	base := time.Date(2012, 4, 4, 0, 0, 0, 0, time.UTC)
	series, err := BuildSeries(sampleTable(), Request{
		Metrics: []string{"rsam"},
		From:    base.Add(2 * time.Minute),
		To:      base.Add(7 * time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, series[0].Times, 6)
	assert.Equal(t, base.Add(2*time.Minute), series[0].Times[0])
	assert.Equal(t, base.Add(7*time.Minute), series[0].Times[5])
}

func TestBuildSeriesUnknownMetric(t *testing.T) {
	_, err := BuildSeries(sampleTable(), Request{Metrics: []string{"centroid"}})
	assert.ErrorIs(t, err, types.ErrUnknownMetric)
}

func TestBuildSeriesEmptySelection(t *testing.T) {
	_, err := BuildSeries(sampleTable(), Request{
		Metrics: []string{"rsam"},
		From:    time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, types.ErrEmptySelection)
}

func TestSplitRunsBreaksAtGaps(t *testing.T) {
	series, err := BuildSeries(sampleTable(), Request{Metrics: []string{"rsam"}})
	require.NoError(t, err)

	runs := splitRuns(series[0])
	require.Len(t, runs, 2, "gap at records 4-5 must split the trace")
	assert.Len(t, runs[0].Values, 4)
	assert.Len(t, runs[1].Values, 4)
	for _, run := range runs {
		for _, v := range run.Values {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestSplitRunsAllGaps(t *testing.T) {
	s := Series{
		Name:   "rsam",
		Times:  []time.Time{time.Now(), time.Now().Add(time.Minute)},
		Values: []float64{math.NaN(), math.NaN()},
	}
	assert.Empty(t, splitRuns(s))
}

func TestRenderPNGWritesFile(t *testing.T) {
	series, err := BuildSeries(sampleTable(), Request{Metrics: []string{"rsam", "fratio"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "NV.VOLC.00.EHZ.2012.png")
	require.NoError(t, RenderPNG(path, "NV.VOLC.00.EHZ 2012", series))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > 8)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestRenderHTMLWritesChart(t *testing.T) {
	series, err := BuildSeries(sampleTable(), Request{Metrics: []string{"rsam"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "NV.VOLC.00.EHZ.2012.html")
	require.NoError(t, RenderHTMLFile(path, "NV.VOLC.00.EHZ 2012", series))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.Contains(html, "echarts"))
	assert.True(t, strings.Contains(html, "rsam"))
}
