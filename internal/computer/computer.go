// Package computer produces per-window metric records from SDS day files,
// one per-channel-year table at a time.
package computer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/seismo-tools/seismopipe/internal/archive"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/metrics"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// Options configures a metric computation run.
type Options struct {
	Layout archive.Layout
	Store  storage.MetricStore

	// Window is the metric cadence; must evenly divide one UTC day.
	Window time.Duration

	// Metrics is the ordered list of metric names to compute.
	Metrics []string

	// MetricConfig carries band edges and other metric parameters.
	MetricConfig metrics.Config
}

// Summary reports what one run produced.
type Summary struct {
	RunID       string
	Records     int
	MissingDays int
	Elapsed     time.Duration
}

// Computer is the stage-2 engine.
type Computer struct {
	opts      Options
	computers []metrics.Computer
	clock     clockwork.Clock
}

// New validates the run parameters and builds the metric set. Unknown metric
// names and window lengths that do not divide the day are run-level errors
// and fail here, before any work starts.
func New(opts Options) (*Computer, error) {
	return NewWithClock(opts, clockwork.NewRealClock())
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(opts Options, clock clockwork.Clock) (*Computer, error) {
	if _, err := metrics.WindowsPerDay(opts.Window); err != nil {
		return nil, err
	}
	if len(opts.Metrics) == 0 {
		opts.Metrics = metrics.Names()
	}

	computers := make([]metrics.Computer, 0, len(opts.Metrics))
	for _, name := range opts.Metrics {
		c, err := metrics.New(name, opts.MetricConfig)
		if err != nil {
			return nil, err
		}
		computers = append(computers, c)
	}
	return &Computer{opts: opts, computers: computers, clock: clock}, nil
}

// Run regenerates the per-channel-year table for one stream and year. The
// table always holds days-in-year x windows-per-day records with strictly
// increasing window starts; windows with no samples get all-missing records.
// A missing or unreadable day file is logged and produces all-missing records
// for that day's windows rather than aborting the year.
func (c *Computer) Run(ctx context.Context, id seedid.StreamID, year int) (*Summary, error) {
	started := c.clock.Now()
	sum := &Summary{RunID: uuid.New().String()}
	perDay, err := metrics.WindowsPerDay(c.opts.Window)
	if err != nil {
		return nil, err
	}

	log.Infow("starting metric computation",
		"run_id", sum.RunID, "stream", id.String(), "year", year,
		"window", c.opts.Window.String(), "metrics", c.opts.Metrics)

	table := &storage.Table{ID: id, Year: year, Metrics: c.opts.Metrics}

	day := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == year {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		// Any failure to read one day is local to that day: the year keeps
		// its full record grid, with the affected windows marked missing.
		df, err := c.opts.Layout.Read(id, day)
		switch {
		case err == nil:
		case errors.Is(err, types.ErrMissingDayArchive):
			log.Warnw("day archive missing, emitting gap records",
				"stream", id.String(), "day", day.Format("2006-01-02"))
			sum.MissingDays++
			df = nil
		default:
			log.Warnw("day archive unreadable, emitting gap records",
				"stream", id.String(), "day", day.Format("2006-01-02"), "error", err)
			sum.MissingDays++
			df = nil
		}

		for w := 0; w < perDay; w++ {
			start := day.Add(time.Duration(w) * c.opts.Window)
			rec := types.MetricRecord{Time: start, Values: make([]float64, len(c.computers))}
			var samples []float64
			if df != nil {
				samples = df.Window(start, c.opts.Window)
			}
			for i, mc := range c.computers {
				if df == nil {
					rec.Values[i] = math.NaN()
					continue
				}
				rec.Values[i] = mc.Compute(samples, df.SampleRate)
			}
			table.Records = append(table.Records, rec)
		}
		sum.Records += perDay
		day = day.AddDate(0, 0, 1)
	}

	if err := c.opts.Store.WriteTable(ctx, table); err != nil {
		return sum, fmt.Errorf("writing table for %s.%d: %w", id, year, err)
	}

	sum.Elapsed = c.clock.Since(started)
	log.Infow("metric computation complete",
		"run_id", sum.RunID,
		"stream", id.String(),
		"year", year,
		"records", sum.Records,
		"missing_days", sum.MissingDays,
		"elapsed", sum.Elapsed)
	return sum, nil
}
