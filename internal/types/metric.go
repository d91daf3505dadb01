// Package types defines shared data types used across the pipeline stages.
package types

import (
	"math"
	"time"
)

// MetricRecord is one row of a per-channel-year table: a window start time
// plus one value per metric column. Values are aligned with the owning
// table's metric name list; NaN marks a missing value.
type MetricRecord struct {
	Time   time.Time
	Values []float64
}

// Missing reports whether the value at column i is missing.
func (r MetricRecord) Missing(i int) bool {
	return i >= len(r.Values) || math.IsNaN(r.Values[i])
}
