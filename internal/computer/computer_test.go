package computer

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-tools/seismopipe/internal/archive"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/segment"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

func TestMain(m *testing.M) {
	log.Init(false)
	os.Exit(m.Run())
}

var testID = seedid.StreamID{Network: "NV", Station: "VOLC", Location: "00", Channel: "EHZ"}

// memStore keeps the last written table in memory.
type memStore struct {
	table *storage.Table
}

func (s *memStore) WriteTable(_ context.Context, t *storage.Table) error {
	s.table = t
	return nil
}

func (s *memStore) ReadTable(_ context.Context, id seedid.StreamID, year int) (*storage.Table, error) {
	return s.table, nil
}

// writeDay writes a day file at 1 Hz with samples covering [fromSec, toSec).
func writeDay(t *testing.T, layout archive.Layout, day time.Time, fromSec, toSec int, value float64) {
	t.Helper()
	df := archive.NewDayFile(testID, day, 1.0)
	seg := segment.Segment{
		ID:         testID,
		Start:      day.Add(time.Duration(fromSec) * time.Second),
		SampleRate: 1.0,
		Samples:    make([]float64, toSec-fromSec),
	}
	for i := range seg.Samples {
		seg.Samples[i] = value * float64(1-2*(i%2)) // alternating +-value, RSAM = value
	}
	_, err := df.Merge(seg)
	require.NoError(t, err)
	require.NoError(t, layout.Write(df))
}

func TestRunFullYearShape(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	day := time.Date(2012, 4, 4, 0, 0, 0, 0, time.UTC)
	writeDay(t, layout, day, 0, 86400, 3)

	store := &memStore{}
	c, err := New(Options{Layout: layout, Store: store, Window: time.Minute, Metrics: []string{"rsam"}})
	require.NoError(t, err)

	sum, err := c.Run(context.Background(), testID, 2012)
	require.NoError(t, err)

	// 2012 is a leap year: 366 days of 1440 one-minute windows, no window
	// dropped no matter how sparse the archive is.
	assert.Equal(t, 366*1440, sum.Records)
	assert.Equal(t, 365, sum.MissingDays)
	require.NotNil(t, store.table)
	require.Len(t, store.table.Records, 366*1440)

	for i := 1; i < len(store.table.Records); i++ {
		if !store.table.Records[i].Time.After(store.table.Records[i-1].Time) {
			t.Fatalf("window starts not strictly increasing at record %d", i)
		}
	}
}

func TestRunComputesPresentWindowsAndGapRecords(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	day := time.Date(2012, 4, 4, 0, 0, 0, 0, time.UTC)

	// Samples only for the first ten minutes of the day.
	writeDay(t, layout, day, 0, 600, 3)

	store := &memStore{}
	c, err := New(Options{Layout: layout, Store: store, Window: time.Minute, Metrics: []string{"rsam"}})
	require.NoError(t, err)
	_, err = c.Run(context.Background(), testID, 2012)
	require.NoError(t, err)

	// Day 2012-04-04 is the 95th day of the leap year.
	base := 94 * 1440
	recs := store.table.Records
	require.Equal(t, day, recs[base].Time)

	for w := 0; w < 10; w++ {
		assert.InDelta(t, 3.0, recs[base+w].Values[0], 1e-9, "window %d", w)
	}
	assert.True(t, math.IsNaN(recs[base+10].Values[0]), "window past coverage must be missing")
	assert.True(t, recs[0].Missing(0), "windows of absent days must be missing")
}

func TestRunRecordsAlignToWindowStarts(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	store := &memStore{}
	c, err := New(Options{Layout: layout, Store: store, Window: 10 * time.Minute, Metrics: []string{"rsam"}})
	require.NoError(t, err)
	_, err = c.Run(context.Background(), testID, 2013)
	require.NoError(t, err)

	assert.Len(t, store.table.Records, 365*144)
	jan1 := time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, jan1, store.table.Records[0].Time)
	assert.Equal(t, jan1.Add(10*time.Minute), store.table.Records[1].Time)
}

func TestRunCorruptDayArchiveEmitsGapRecords(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	day := time.Date(2012, 4, 4, 0, 0, 0, 0, time.UTC)

	// An unparseable day file must cost only that day, not the year.
	path := layout.DayPath(testID, day)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not msgpack"), 0o644))

	store := &memStore{}
	c, err := New(Options{Layout: layout, Store: store, Window: time.Minute, Metrics: []string{"rsam"}})
	require.NoError(t, err)

	sum, err := c.Run(context.Background(), testID, 2012)
	require.NoError(t, err)
	assert.Equal(t, 366*1440, sum.Records)
	assert.Equal(t, 366, sum.MissingDays)

	require.NotNil(t, store.table)
	require.Len(t, store.table.Records, 366*1440)
	assert.True(t, store.table.Records[94*1440].Missing(0))
}

func TestNewRejectsBadParameters(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	store := &memStore{}

	_, err := New(Options{Layout: layout, Store: store, Window: 7 * time.Second})
	assert.ErrorIs(t, err, types.ErrInvalidWindowLength)

	_, err = New(Options{Layout: layout, Store: store, Window: time.Minute, Metrics: []string{"centroid"}})
	assert.ErrorIs(t, err, types.ErrUnknownMetric)
}

func TestNewDefaultsToAllMetrics(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	store := &memStore{}
	c, err := New(Options{Layout: layout, Store: store, Window: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, []string{"rsam", "fratio"}, c.opts.Metrics)
}

func TestRunHonorsCancellation(t *testing.T) {
	layout := archive.NewLayout(t.TempDir())
	store := &memStore{}
	c, err := New(Options{Layout: layout, Store: store, Window: time.Minute, Metrics: []string{"rsam"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Run(ctx, testID, 2012)
	assert.ErrorIs(t, err, context.Canceled)
}
