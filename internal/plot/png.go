package plot

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var traceColors = []drawing.Color{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	{R: 0xd6, G: 0x27, B: 0x28, A: 255},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	{R: 0x94, G: 0x67, B: 0xbd, A: 255},
}

// RenderPNG writes a static time-series chart with one trace per series.
// Gap values (NaN) split a trace into disjoint runs so gaps stay visible
// instead of being bridged by a line.
func RenderPNG(path, title string, series []Series) error {
	var chartSeries []chart.Series
	for i, s := range series {
		color := traceColors[i%len(traceColors)]
		for _, run := range splitRuns(s) {
			// go-chart needs at least two points per series.
			if len(run.Times) < 2 {
				continue
			}
			chartSeries = append(chartSeries, chart.TimeSeries{
				Name: s.Name,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 1.5,
				},
				XValues: run.Times,
				YValues: run.Values,
			})
		}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 500,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02 15:04"),
		},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return graph.Render(chart.PNG, f)
}

// splitRuns breaks a series into contiguous non-gap runs.
func splitRuns(s Series) []Series {
	var runs []Series
	var cur Series
	flush := func() {
		if len(cur.Times) > 0 {
			runs = append(runs, cur)
			cur = Series{Name: s.Name}
		}
	}
	cur.Name = s.Name
	for i, v := range s.Values {
		if math.IsNaN(v) {
			flush()
			continue
		}
		cur.Times = append(cur.Times, s.Times[i])
		cur.Values = append(cur.Values, v)
	}
	flush()
	return runs
}

// timeBounds returns the min and max timestamps across all series.
func timeBounds(series []Series) (time.Time, time.Time) {
	var min, max time.Time
	for _, s := range series {
		for _, t := range s.Times {
			if min.IsZero() || t.Before(min) {
				min = t
			}
			if max.IsZero() || t.After(max) {
				max = t
			}
		}
	}
	return min, max
}
