package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// Codec reads and writes segment files in one archive format. A single file
// may be multiplexed, holding chunks for several streams recorded over the
// same interval.
type Codec interface {
	// Ext is the file extension the codec claims, with leading dot.
	Ext() string
	Read(path string) ([]Segment, error)
	Write(path string, segs []Segment) error
}

const (
	segMagic   = "SEGV"
	segVersion = 1
)

// segFile is the on-disk msgpack container.
type segFile struct {
	Magic   string     `msgpack:"magic"`
	Version int        `msgpack:"version"`
	Chunks  []segChunk `msgpack:"chunks"`
}

type segChunk struct {
	Network    string    `msgpack:"net"`
	Station    string    `msgpack:"sta"`
	Location   string    `msgpack:"loc"`
	Channel    string    `msgpack:"cha"`
	StartNS    int64     `msgpack:"start_ns"`
	SampleRate float64   `msgpack:"rate"`
	Samples    []float64 `msgpack:"samples"`
}

// MsgpackCodec is the native segment container: a msgpack document with a
// magic header and one chunk per stream.
type MsgpackCodec struct{}

func (MsgpackCodec) Ext() string { return ".seg" }

func (MsgpackCodec) Read(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f segFile
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrMalformedSegment, path, err)
	}
	if f.Magic != segMagic || f.Version != segVersion {
		return nil, fmt.Errorf("%w: %s: bad magic/version %q/%d", types.ErrMalformedSegment, path, f.Magic, f.Version)
	}

	segs := make([]Segment, 0, len(f.Chunks))
	for i, c := range f.Chunks {
		if c.SampleRate <= 0 || len(c.Samples) == 0 {
			return nil, fmt.Errorf("%w: %s: chunk %d has no samples or rate", types.ErrMalformedSegment, path, i)
		}
		seg := Segment{
			ID: seedid.StreamID{
				Network:  c.Network,
				Station:  c.Station,
				Location: c.Location,
				Channel:  c.Channel,
			},
			Start:      time.Unix(0, c.StartNS).UTC(),
			SampleRate: c.SampleRate,
			Samples:    c.Samples,
		}
		seg.NormalizeRate()
		segs = append(segs, seg)
	}
	return segs, nil
}

func (MsgpackCodec) Write(path string, segs []Segment) error {
	f := segFile{Magic: segMagic, Version: segVersion}
	for _, s := range segs {
		f.Chunks = append(f.Chunks, segChunk{
			Network:    s.ID.Network,
			Station:    s.ID.Station,
			Location:   s.ID.Location,
			Channel:    s.ID.Channel,
			StartNS:    s.Start.UnixNano(),
			SampleRate: s.SampleRate,
			Samples:    s.Samples,
		})
	}

	data, err := msgpack.Marshal(&f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Scan walks root recursively and returns the paths of all files carrying
// the codec's extension, sorted lexically so runs are deterministic.
func Scan(root string, c Codec) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == c.Ext() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
