package plot

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// RenderHTML writes an interactive chart page with one line per series.
// All series in one call must share a time base, which holds for traces
// built from the same table.
func RenderHTML(w io.Writer, title string, series []Series) error {
	line := charts.NewLine()

	subtitle := ""
	if first, last := timeBounds(series); !first.IsZero() {
		subtitle = first.Format("2006-01-02 15:04") + " - " + last.Format("2006-01-02 15:04") + " UTC"
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "1200px",
			Height: "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Time (UTC)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Value",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: true,
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type: "slider",
		}),
	)

	if len(series) > 0 {
		xAxis := make([]string, len(series[0].Times))
		for i, t := range series[0].Times {
			xAxis[i] = t.Format("2006-01-02 15:04")
		}
		line.SetXAxis(xAxis)
	}
	for _, s := range series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			if math.IsNaN(v) {
				// echarts treats "-" as a hole in the line.
				data[i] = opts.LineData{Value: "-"}
			} else {
				data[i] = opts.LineData{Value: v}
			}
		}
		line.AddSeries(s.Name, data)
	}

	return line.Render(w)
}

// RenderHTMLFile is RenderHTML to a file path.
func RenderHTMLFile(path, title string, series []Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RenderHTML(f, title, series)
}
