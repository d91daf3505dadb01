package archive

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/segment"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

const (
	dayMagic   = "SDSD"
	dayVersion = 1
)

// DayFile holds one stream's samples for one UTC day on a fixed grid of
// rate*86400 slots. Gaps are NaN; they are never interpolated.
type DayFile struct {
	ID         seedid.StreamID
	Date       time.Time
	SampleRate float64
	Samples    []float64
}

// NewDayFile returns an all-gap day file for the given stream, day and rate.
func NewDayFile(id seedid.StreamID, day time.Time, rate float64) *DayFile {
	n := int(rate * constants.SecondsPerDay)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.NaN()
	}
	return &DayFile{
		ID:         id,
		Date:       day.UTC().Truncate(24 * time.Hour),
		SampleRate: rate,
		Samples:    samples,
	}
}

// Merge places a segment's samples onto the day grid. Where the segment
// overlaps samples already present, the more complete side wins: if the
// incoming segment carries more non-gap samples over the overlapped range
// than the grid already holds, its values replace the grid's; otherwise it
// only fills gaps. Returns the number of grid slots written.
func (d *DayFile) Merge(seg segment.Segment) (int, error) {
	if seg.SampleRate != d.SampleRate {
		return 0, fmt.Errorf("%w: %s: day file at %g Hz, segment at %g Hz",
			types.ErrChannelMetadataMismatch, d.ID, d.SampleRate, seg.SampleRate)
	}

	offset := seg.Start.UTC().Sub(d.Date).Seconds()
	start := int(math.Round(offset * d.SampleRate))
	if start < 0 || start >= len(d.Samples) {
		return 0, fmt.Errorf("segment for %s starting %s falls outside day %s",
			d.ID, seg.Start.UTC().Format(time.RFC3339), d.Date.Format("2006-01-02"))
	}

	end := start + len(seg.Samples)
	if end > len(d.Samples) {
		end = len(d.Samples)
	}

	have, incoming := 0, 0
	for i := start; i < end; i++ {
		if !math.IsNaN(d.Samples[i]) {
			have++
		}
		if !math.IsNaN(seg.Samples[i-start]) {
			incoming++
		}
	}
	incomingWins := incoming > have

	written := 0
	for i := start; i < end; i++ {
		v := seg.Samples[i-start]
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(d.Samples[i]) || incomingWins {
			d.Samples[i] = v
			written++
		}
	}
	return written, nil
}

// Window returns the samples for the window beginning at start. The slice
// aliases the day grid; callers must not modify it.
func (d *DayFile) Window(start time.Time, length time.Duration) []float64 {
	i := int(math.Round(start.UTC().Sub(d.Date).Seconds() * d.SampleRate))
	n := int(length.Seconds() * d.SampleRate)
	if i < 0 || n <= 0 || i >= len(d.Samples) {
		return nil
	}
	if i+n > len(d.Samples) {
		n = len(d.Samples) - i
	}
	return d.Samples[i : i+n]
}

// Coverage returns the fraction of non-gap samples in the day.
func (d *DayFile) Coverage() float64 {
	if len(d.Samples) == 0 {
		return 0
	}
	n := 0
	for _, v := range d.Samples {
		if !math.IsNaN(v) {
			n++
		}
	}
	return float64(n) / float64(len(d.Samples))
}

type dayHeader struct {
	Magic      string    `msgpack:"magic"`
	Version    int       `msgpack:"version"`
	Network    string    `msgpack:"net"`
	Station    string    `msgpack:"sta"`
	Location   string    `msgpack:"loc"`
	Channel    string    `msgpack:"cha"`
	DateNS     int64     `msgpack:"date_ns"`
	SampleRate float64   `msgpack:"rate"`
	Samples    []float64 `msgpack:"samples"`
}

// Write stores the day file under the layout, creating directories as
// needed. The file is written to a temporary name in the target directory
// and renamed into place so readers never observe a truncated file and
// re-runs are deterministic overwrites.
func (l Layout) Write(d *DayFile) error {
	path := l.DayPath(d.ID, d.Date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := msgpack.Marshal(&dayHeader{
		Magic:      dayMagic,
		Version:    dayVersion,
		Network:    d.ID.Network,
		Station:    d.ID.Station,
		Location:   d.ID.Location,
		Channel:    d.ID.Channel,
		DateNS:     d.Date.UnixNano(),
		SampleRate: d.SampleRate,
		Samples:    d.Samples,
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read loads the day file for one stream and day.
func (l Layout) Read(id seedid.StreamID, day time.Time) (*DayFile, error) {
	path := l.DayPath(id, day)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrMissingDayArchive, path)
		}
		return nil, err
	}

	var h dayHeader
	if err := msgpack.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("day file %s: %w", path, err)
	}
	if h.Magic != dayMagic || h.Version != dayVersion {
		return nil, fmt.Errorf("day file %s: bad magic/version %q/%d", path, h.Magic, h.Version)
	}

	return &DayFile{
		ID: seedid.StreamID{
			Network:  h.Network,
			Station:  h.Station,
			Location: h.Location,
			Channel:  h.Channel,
		},
		Date:       time.Unix(0, h.DateNS).UTC(),
		SampleRate: h.SampleRate,
		Samples:    h.Samples,
	}, nil
}
