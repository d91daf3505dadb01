// Package main provides a segment archive simulator: it writes synthetic
// two-minute continuous record segments so the pipeline can be exercised
// without observatory data.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/segment"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// SignalEmulator generates synthetic volcano-seismic samples: background
// noise plus a slow daily amplitude cycle and occasional transient bursts.
type SignalEmulator struct {
	rng  *rand.Rand
	rate float64
}

func NewSignalEmulator(seed int64, rate float64) *SignalEmulator {
	return &SignalEmulator{rng: rand.New(rand.NewSource(seed)), rate: rate}
}

// Generate produces samples for one segment starting at start.
func (e *SignalEmulator) Generate(start time.Time, n int) []float64 {
	samples := make([]float64, n)
	burst := 0
	burstAmp := 0.0
	for i := range samples {
		t := start.Add(time.Duration(float64(i) / e.rate * float64(time.Second)))
		hour := float64(t.Hour()) + float64(t.Minute())/60

		// Daily cultural-noise cycle peaking mid-day.
		daily := 1 + 0.4*math.Sin(2*math.Pi*(hour-6)/24)
		v := e.rng.NormFloat64() * 50 * daily

		// Tremor band content so fratio has something to measure.
		v += 30 * math.Sin(2*math.Pi*3*float64(i)/e.rate)

		if burst == 0 && e.rng.Float64() < 1e-5 {
			burst = int(e.rate * 10)
			burstAmp = 200 + e.rng.Float64()*800
		}
		if burst > 0 {
			v += burstAmp * math.Exp(-3*float64(int(e.rate*10)-burst)/(e.rate*10)) * e.rng.NormFloat64()
			burst--
		}
		samples[i] = v
	}
	return samples
}

func main() {
	outDir := flag.String("out", "segments", "Output directory for segment files")
	streams := flag.String("streams", "NV.VOLC.00.EHZ", "Comma-separated stream list")
	start := flag.String("start", "2012-04-01", "First day, YYYY-MM-DD")
	days := flag.Int("days", 1, "Number of days to generate")
	rate := flag.Float64("rate", constants.DefaultSampleRate, "Sample rate in Hz")
	gapProb := flag.Float64("gap-probability", 0, "Probability that a segment is dropped (a gap)")
	dupProb := flag.Float64("duplicate-probability", 0, "Probability that a segment is written twice")
	seed := flag.Int64("seed", 1, "Random seed")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("segment-simulator %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	firstDay, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("Invalid -start: %v", err)
	}

	var ids []seedid.StreamID
	for _, s := range strings.Split(*streams, ",") {
		id, err := seedid.Parse(s)
		if err != nil {
			log.Fatalf("Invalid stream %q: %v", s, err)
		}
		ids = append(ids, id)
	}

	codec := segment.MsgpackCodec{}
	emu := NewSignalEmulator(*seed, *rate)
	rng := rand.New(rand.NewSource(*seed + 1))
	segLen := int(constants.DefaultSegmentDuration.Seconds() * *rate)
	perDay := int(24 * time.Hour / constants.DefaultSegmentDuration)

	written := 0
	for d := 0; d < *days; d++ {
		day := firstDay.UTC().AddDate(0, 0, d)
		dayDir := filepath.Join(*outDir, day.Format("2006"), day.Format("01"), day.Format("02"))
		for i := 0; i < perDay; i++ {
			segStart := day.Add(time.Duration(i) * constants.DefaultSegmentDuration)
			if rng.Float64() < *gapProb {
				continue
			}

			var segs []segment.Segment
			for _, id := range ids {
				segs = append(segs, segment.Segment{
					ID:         id,
					Start:      segStart,
					SampleRate: *rate,
					Samples:    emu.Generate(segStart, segLen),
				})
			}

			name := segStart.Format("20060102-150405") + codec.Ext()
			path := filepath.Join(dayDir, name)
			if err := codec.Write(path, segs); err != nil {
				log.Fatalf("Writing %s: %v", path, err)
			}
			written++

			if rng.Float64() < *dupProb {
				dup := filepath.Join(dayDir, segStart.Format("20060102-150405")+".dup"+codec.Ext())
				if err := codec.Write(dup, segs); err != nil {
					log.Fatalf("Writing %s: %v", dup, err)
				}
				written++
			}
		}
	}

	log.Infof("wrote %d segment files for %d stream(s) under %s", written, len(ids), *outDir)
}
