// Package metrics computes per-window summary metrics over seismic samples.
package metrics

import (
	"fmt"
	"time"

	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/types"
)

// Computer computes one scalar metric over a window of samples. Samples use
// NaN for gaps; a Computer returns NaN when the metric is undefined for the
// window (full gap, zero denominator band, ...). A record is still emitted
// for such windows, with the value marked missing.
type Computer interface {
	Name() string
	Compute(samples []float64, rate float64) float64
}

// Config carries the tunable parameters of the metric set.
type Config struct {
	// FRatio band edges, Hz. Defaults follow observatory practice: the low
	// band brackets volcano-tectonic energy, the high band surface noise.
	LowMin  float64
	LowMax  float64
	HighMin float64
	HighMax float64
}

// DefaultConfig returns the band edges used when none are configured.
func DefaultConfig() Config {
	return Config{LowMin: 1, LowMax: 6, HighMin: 6, HighMax: 16}
}

// New returns the Computer registered under name. A zero Config gets the
// default band edges.
func New(name string, cfg Config) (Computer, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	switch name {
	case "rsam":
		return RSAM{}, nil
	case "fratio":
		return FRatio{
			LowMin:  cfg.LowMin,
			LowMax:  cfg.LowMax,
			HighMin: cfg.HighMin,
			HighMax: cfg.HighMax,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownMetric, name)
}

// Names returns the registered metric names.
func Names() []string {
	return []string{"rsam", "fratio"}
}

// WindowsPerDay validates the window length and returns how many windows fit
// in one UTC day.
func WindowsPerDay(window time.Duration) (int, error) {
	secs := int(window.Seconds())
	if secs <= 0 || float64(secs) != window.Seconds() || constants.SecondsPerDay%secs != 0 {
		return 0, fmt.Errorf("%w: %s does not evenly divide one day", types.ErrInvalidWindowLength, window)
	}
	return constants.SecondsPerDay / secs, nil
}
