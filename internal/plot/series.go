// Package plot renders per-channel-year metric tables as time-series charts,
// either static PNG files or interactive HTML pages.
package plot

import (
	"fmt"
	"math"
	"time"

	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
)

// Series is one plottable metric trace. Times and Values are parallel;
// missing values are NaN and rendered as gaps.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Request selects what to plot from one table.
type Request struct {
	// Metrics lists the metric columns to trace.
	Metrics []string

	// From/To bound the records plotted; zero values mean unbounded.
	From, To time.Time
}

// BuildSeries extracts the requested metric traces from a table. It fails
// with ErrUnknownMetric when a requested name is not a table column and with
// ErrEmptySelection when the time filter leaves nothing to plot. It never
// mutates the table.
func BuildSeries(t *storage.Table, req Request) ([]Series, error) {
	cols := make([]int, len(req.Metrics))
	for i, name := range req.Metrics {
		idx := t.MetricIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q is not a column of table %s.%d", types.ErrUnknownMetric, name, t.ID, t.Year)
		}
		cols[i] = idx
	}

	var selected []types.MetricRecord
	for _, rec := range t.Records {
		if !req.From.IsZero() && rec.Time.Before(req.From) {
			continue
		}
		if !req.To.IsZero() && rec.Time.After(req.To) {
			continue
		}
		selected = append(selected, rec)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no records in requested time range for table %s.%d", types.ErrEmptySelection, t.ID, t.Year)
	}

	series := make([]Series, len(req.Metrics))
	for i, name := range req.Metrics {
		s := Series{Name: name}
		for _, rec := range selected {
			s.Times = append(s.Times, rec.Time)
			if rec.Missing(cols[i]) {
				s.Values = append(s.Values, math.NaN())
			} else {
				s.Values = append(s.Values, rec.Values[cols[i]])
			}
		}
		series[i] = s
	}
	return series, nil
}
