// Package reorganizer rewrites a flat archive of fixed-duration continuous
// record segments into the SDS day-file layout: one file per stream per UTC
// day.
package reorganizer

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/seismo-tools/seismopipe/internal/archive"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/segment"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// Options configures a reorganizer run.
type Options struct {
	// Source is the directory scanned recursively for segment files.
	Source string

	// Layout is the destination SDS archive.
	Layout archive.Layout

	// Codec parses source segment files.
	Codec segment.Codec

	// Fixer, when non-nil, normalizes legacy stream identifiers.
	Fixer *seedid.Fixer

	// From/To bound the days processed; zero values mean unbounded.
	From, To time.Time

	// Workers caps concurrent (stream, day) units. Zero means sequential.
	Workers int
}

// Summary reports what one run did.
type Summary struct {
	RunID           string
	FilesScanned    int
	FilesSkipped    int
	SegmentsMerged  int64
	SegmentsSkipped int64
	DaysWritten     int64
	Elapsed         time.Duration
}

// Reorganizer is the stage-1 engine.
type Reorganizer struct {
	opts  Options
	clock clockwork.Clock
}

// New creates a reorganizer with a real clock.
func New(opts Options) *Reorganizer {
	return NewWithClock(opts, clockwork.NewRealClock())
}

// NewWithClock creates a reorganizer with an injected clock, for tests.
func NewWithClock(opts Options, clock clockwork.Clock) *Reorganizer {
	return &Reorganizer{opts: opts, clock: clock}
}

type dayKey struct {
	id  seedid.StreamID
	day time.Time
}

// Run scans the source, groups segments per (stream, day), merges each group
// onto a day grid and writes the day files. A corrupt segment file is logged
// and skipped; the run continues with the remaining files. Cancellation is
// honored between units, never mid-file, so no day file is ever left
// truncated.
func (r *Reorganizer) Run(ctx context.Context) (*Summary, error) {
	started := r.clock.Now()
	sum := &Summary{RunID: uuid.New().String()}
	log.Infow("starting archive reorganization", "run_id", sum.RunID, "source", r.opts.Source, "dest", r.opts.Layout.Root)

	paths, err := segment.Scan(r.opts.Source, r.opts.Codec)
	if err != nil {
		return nil, err
	}
	log.Infof("found %d segment files under %s", len(paths), r.opts.Source)

	groups := make(map[dayKey][]segment.Segment)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.FilesScanned++

		segs, err := r.opts.Codec.Read(path)
		if err != nil {
			if errors.Is(err, types.ErrMalformedSegment) {
				log.Warnw("skipping unreadable segment file", "path", path, "error", err)
				sum.FilesSkipped++
				continue
			}
			return sum, err
		}

		if r.opts.Fixer != nil {
			ids := make([]seedid.StreamID, len(segs))
			for i := range segs {
				ids[i] = segs[i].ID
			}
			fixed, keep := r.opts.Fixer.Fix(ids)
			kept := segs[:0]
			for i := range segs {
				if keep[i] {
					segs[i].ID = fixed[i]
					kept = append(kept, segs[i])
				}
			}
			segs = kept
		}

		for _, seg := range segs {
			for _, piece := range seg.SplitAtMidnight() {
				day := piece.Start.UTC().Truncate(24 * time.Hour)
				if !r.inRange(day) {
					continue
				}
				key := dayKey{id: piece.ID, day: day}
				groups[key] = append(groups[key], piece)
			}
		}
	}

	keys := make([]dayKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id.String() < keys[j].id.String()
		}
		return keys[i].day.Before(keys[j].day)
	})

	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Workers > 1 {
		g.SetLimit(r.opts.Workers)
	} else {
		g.SetLimit(1)
	}
	for _, key := range keys {
		if err := gctx.Err(); err != nil {
			break
		}
		key := key
		segs := groups[key]
		g.Go(func() error {
			return r.writeDay(key, segs, sum)
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	sum.Elapsed = r.clock.Since(started)
	log.Infow("archive reorganization complete",
		"run_id", sum.RunID,
		"files_scanned", sum.FilesScanned,
		"files_skipped", sum.FilesSkipped,
		"segments_merged", sum.SegmentsMerged,
		"segments_skipped", sum.SegmentsSkipped,
		"days_written", sum.DaysWritten,
		"elapsed", sum.Elapsed)
	return sum, nil
}

// writeDay merges one (stream, day) group and writes the day file.
func (r *Reorganizer) writeDay(key dayKey, segs []segment.Segment, sum *Summary) error {
	// Deterministic merge order: by start time, then most complete first, so
	// duplicate segments for the same range always resolve the same way.
	sort.SliceStable(segs, func(i, j int) bool {
		if !segs[i].Start.Equal(segs[j].Start) {
			return segs[i].Start.Before(segs[j].Start)
		}
		return segs[i].Coverage() > segs[j].Coverage()
	})

	day := archive.NewDayFile(key.id, key.day, segs[0].SampleRate)
	for _, seg := range segs {
		if _, err := day.Merge(seg); err != nil {
			if errors.Is(err, types.ErrChannelMetadataMismatch) {
				log.Warnw("skipping segment with mismatched metadata",
					"stream", key.id.String(), "day", key.day.Format("2006-01-02"), "error", err)
				atomic.AddInt64(&sum.SegmentsSkipped, 1)
				continue
			}
			return err
		}
		atomic.AddInt64(&sum.SegmentsMerged, 1)
	}

	if err := r.opts.Layout.Write(day); err != nil {
		return err
	}
	atomic.AddInt64(&sum.DaysWritten, 1)
	log.Debugw("wrote day file",
		"stream", key.id.String(),
		"day", key.day.Format("2006-01-02"),
		"coverage", day.Coverage())
	return nil
}

func (r *Reorganizer) inRange(day time.Time) bool {
	if !r.opts.From.IsZero() && day.Before(r.opts.From.UTC().Truncate(24*time.Hour)) {
		return false
	}
	if !r.opts.To.IsZero() && day.After(r.opts.To.UTC().Truncate(24*time.Hour)) {
		return false
	}
	return true
}
