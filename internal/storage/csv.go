package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// CSVStore writes one CSV file per (stream, year) under a root directory,
// named NET.STA.LOC.CHAN.YYYY.csv. The first column is the window start in
// RFC3339; missing metric values are empty cells.
type CSVStore struct {
	Root string
}

// NewCSVStore returns a store rooted at root.
func NewCSVStore(root string) *CSVStore {
	return &CSVStore{Root: root}
}

// TablePath returns the file path for one (stream, year) table.
func (s *CSVStore) TablePath(id seedid.StreamID, year int) string {
	return filepath.Join(s.Root, fmt.Sprintf("%s.%04d.csv", id, year))
}

func (s *CSVStore) WriteTable(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return err
	}

	path := s.TablePath(t.ID, t.Year)
	tmp, err := os.CreateTemp(s.Root, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := append([]string{"time"}, t.Metrics...)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}

	row := make([]string, len(header))
	for _, rec := range t.Records {
		row[0] = rec.Time.UTC().Format(timeFormat)
		for i := range t.Metrics {
			if rec.Missing(i) {
				row[i+1] = ""
			} else {
				row[i+1] = strconv.FormatFloat(rec.Values[i], 'g', -1, 64)
			}
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *CSVStore) ReadTable(ctx context.Context, id seedid.StreamID, year int) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCSVTable(s.TablePath(id, year))
}

// ReadCSVTable loads a per-channel-year table from an explicit CSV path.
// Stream and year are recovered from the filename when it follows the
// store's naming convention.
func ReadCSVTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}
	if len(header) < 2 || header[0] != "time" {
		return nil, fmt.Errorf("table %s: malformed header", path)
	}

	t := &Table{Metrics: header[1:]}
	t.ID, t.Year = parseTableName(filepath.Base(path))

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", path, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("table %s: row has %d columns, want %d", path, len(row), len(header))
		}
		ts, err := time.Parse(timeFormat, row[0])
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", path, err)
		}
		rec := types.MetricRecord{Time: ts.UTC(), Values: make([]float64, len(t.Metrics))}
		for i, cell := range row[1:] {
			if cell == "" {
				rec.Values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", path, err)
			}
			rec.Values[i] = v
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func parseTableName(name string) (seedid.StreamID, int) {
	base := name
	if ext := filepath.Ext(base); ext == ".csv" {
		base = base[:len(base)-len(ext)]
	}
	if ext := filepath.Ext(base); len(ext) == 5 {
		year, err := strconv.Atoi(ext[1:])
		if err == nil {
			if id, err := seedid.Parse(base[:len(base)-len(ext)]); err == nil {
				return id, year
			}
		}
	}
	return seedid.StreamID{}, 0
}
