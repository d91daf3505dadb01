package metrics

import "math"

// RSAM is the Real-time Seismic Amplitude Measurement: the mean absolute
// amplitude of the window after removing the window's DC offset. Gaps are
// excluded from both the offset and the mean.
type RSAM struct{}

func (RSAM) Name() string { return "rsam" }

func (RSAM) Compute(samples []float64, rate float64) float64 {
	sum, n := 0.0, 0
	for _, v := range samples {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	mean := sum / float64(n)

	abs := 0.0
	for _, v := range samples {
		if !math.IsNaN(v) {
			abs += math.Abs(v - mean)
		}
	}
	return abs / float64(n)
}
