package segment

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

var testID = seedid.StreamID{Network: "NV", Station: "VOLC", Location: "00", Channel: "EHZ"}

func makeSegment(start time.Time, rate float64, n int) Segment {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i)
	}
	return Segment{ID: testID, Start: start, SampleRate: rate, Samples: samples}
}

func TestNormalizeRate(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact integer", 100, 100},
		{"jitter below", 99.999997, 100},
		{"jitter above", 100.000002, 100},
		{"genuinely fractional", 40.96, 40.96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Segment{SampleRate: tt.in}
			s.NormalizeRate()
			if s.SampleRate != tt.want {
				t.Errorf("NormalizeRate(%v) = %v, want %v", tt.in, s.SampleRate, tt.want)
			}
		})
	}
}

func TestSplitAtMidnightNoCrossing(t *testing.T) {
	start := time.Date(2012, 4, 4, 10, 0, 0, 0, time.UTC)
	seg := makeSegment(start, 100, 12000) // two minutes
	parts := seg.SplitAtMidnight()
	require.Len(t, parts, 1)
	assert.Equal(t, start, parts[0].Start)
	assert.Len(t, parts[0].Samples, 12000)
}

func TestSplitAtMidnightCrossing(t *testing.T) {
	// One minute before midnight, two minutes of data.
	start := time.Date(2012, 4, 4, 23, 59, 0, 0, time.UTC)
	seg := makeSegment(start, 100, 12000)
	parts := seg.SplitAtMidnight()
	require.Len(t, parts, 2)

	assert.Equal(t, start, parts[0].Start)
	assert.Len(t, parts[0].Samples, 6000)

	midnight := time.Date(2012, 4, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, midnight, parts[1].Start)
	assert.Len(t, parts[1].Samples, 6000)

	// No samples lost or duplicated at the boundary.
	assert.Equal(t, seg.Samples[5999], parts[0].Samples[5999])
	assert.Equal(t, seg.Samples[6000], parts[1].Samples[0])
}

func TestCoverage(t *testing.T) {
	seg := makeSegment(time.Now().UTC(), 10, 100)
	seg.Samples[3] = math.NaN()
	seg.Samples[50] = math.NaN()
	assert.Equal(t, 98, seg.Coverage())
}

func TestCodecRoundtrip(t *testing.T) {
	dir := t.TempDir()
	codec := MsgpackCodec{}
	path := filepath.Join(dir, "x"+codec.Ext())

	start := time.Date(2012, 4, 4, 0, 0, 0, 0, time.UTC)
	in := []Segment{makeSegment(start, 100, 120)}
	require.NoError(t, codec.Write(path, in))

	out, err := codec.Read(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, testID, out[0].ID)
	assert.True(t, out[0].Start.Equal(start))
	assert.Equal(t, 100.0, out[0].SampleRate)
	assert.Equal(t, in[0].Samples, out[0].Samples)
}

func TestCodecMalformedFile(t *testing.T) {
	dir := t.TempDir()
	codec := MsgpackCodec{}
	path := filepath.Join(dir, "garbage"+codec.Ext())
	require.NoError(t, os.WriteFile(path, []byte("this is not msgpack at all"), 0o644))

	_, err := codec.Read(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedSegment), "want ErrMalformedSegment, got %v", err)
}

func TestCodecRejectsEmptyChunk(t *testing.T) {
	dir := t.TempDir()
	codec := MsgpackCodec{}
	path := filepath.Join(dir, "empty"+codec.Ext())
	require.NoError(t, codec.Write(path, []Segment{{ID: testID, Start: time.Now(), SampleRate: 100}}))

	_, err := codec.Read(path)
	assert.True(t, errors.Is(err, types.ErrMalformedSegment), "want ErrMalformedSegment, got %v", err)
}

func TestScanFindsOnlyCodecFiles(t *testing.T) {
	dir := t.TempDir()
	codec := MsgpackCodec{}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2012", "04"), 0o755))
	for _, name := range []string{"2012/04/a.seg", "2012/04/b.seg", "2012/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte("x"), 0o644))
	}

	paths, err := Scan(dir, codec)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "a.seg", filepath.Base(paths[0]))
	assert.Equal(t, "b.seg", filepath.Base(paths[1]))
}
