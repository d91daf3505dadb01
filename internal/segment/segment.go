// Package segment reads and writes continuous record segments, the
// fixed-duration chunks produced by the observatory acquisition system.
package segment

import (
	"math"
	"time"

	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// Segment is one fixed-duration chunk of continuous data for one stream.
// Samples use NaN for missing values within the chunk.
type Segment struct {
	ID         seedid.StreamID
	Start      time.Time
	SampleRate float64
	Samples    []float64
}

// End returns the time just past the last sample.
func (s Segment) End() time.Time {
	return s.Start.Add(s.Duration())
}

// Duration is the time span covered by the samples.
func (s Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / s.SampleRate * float64(time.Second))
}

// Coverage returns the number of non-missing samples.
func (s Segment) Coverage() int {
	n := 0
	for _, v := range s.Samples {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// NormalizeRate rounds away sample-rate jitter. Legacy digitizers report
// rates like 99.999997 Hz; anything within tolerance of an integer is
// snapped to it so streams group correctly.
func (s *Segment) NormalizeRate() {
	r := math.Round(s.SampleRate)
	if r > 0 && math.Abs(s.SampleRate-r) < 1e-6*r {
		s.SampleRate = r
	}
}

// SplitAtMidnight splits the segment so each piece lies entirely within a
// single UTC day. Most segments return themselves unchanged; only chunks
// recorded across midnight produce two pieces.
func (s Segment) SplitAtMidnight() []Segment {
	var parts []Segment
	cur := s
	for {
		dayEnd := cur.Start.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		if !cur.End().After(dayEnd) {
			parts = append(parts, cur)
			return parts
		}
		n := int(dayEnd.Sub(cur.Start).Seconds() * cur.SampleRate)
		if n <= 0 || n >= len(cur.Samples) {
			parts = append(parts, cur)
			return parts
		}
		parts = append(parts, Segment{
			ID:         cur.ID,
			Start:      cur.Start,
			SampleRate: cur.SampleRate,
			Samples:    cur.Samples[:n],
		})
		cur = Segment{
			ID:         cur.ID,
			Start:      dayEnd,
			SampleRate: cur.SampleRate,
			Samples:    cur.Samples[n:],
		}
	}
}
