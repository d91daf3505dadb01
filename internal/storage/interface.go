// Package storage defines interfaces and implementations for metric table
// storage backends.
package storage

import (
	"context"
	"time"

	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// Table is one per-channel-year metric table: a fixed set of metric columns
// and one record per window, ordered by strictly increasing window start.
type Table struct {
	ID      seedid.StreamID
	Year    int
	Metrics []string
	Records []types.MetricRecord
}

// MetricIndex returns the column index of a metric name, or -1.
func (t *Table) MetricIndex(name string) int {
	for i, m := range t.Metrics {
		if m == name {
			return i
		}
	}
	return -1
}

// MetricStore persists per-channel-year tables. WriteTable replaces any
// previous table for the same (stream, year) in full; the computer
// regenerates tables rather than merging across runs, which is what keeps
// the uniqueness and monotonicity of window starts trivially true.
type MetricStore interface {
	WriteTable(ctx context.Context, t *Table) error
	ReadTable(ctx context.Context, id seedid.StreamID, year int) (*Table, error)
}

// timeFormat is the window-start timestamp format used by file backends.
const timeFormat = time.RFC3339
