package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// SQLiteStore keeps metric tables in a single SQLite database, one row per
// (stream, year, window, metric). NULL marks a missing value.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS metric_records (
	stream       TEXT    NOT NULL,
	year         INTEGER NOT NULL,
	window_start INTEGER NOT NULL,
	metric       TEXT    NOT NULL,
	metric_pos   INTEGER NOT NULL,
	value        REAL,
	PRIMARY KEY (stream, year, window_start, metric)
);
`

// NewSQLiteStore opens (creating if necessary) the metric database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create metric_records table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) WriteTable(ctx context.Context, t *Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM metric_records WHERE stream = ? AND year = ?`,
		t.ID.String(), t.Year); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO metric_records (stream, year, window_start, metric, metric_pos, value)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range t.Records {
		for i, name := range t.Metrics {
			var value any
			if !rec.Missing(i) {
				value = rec.Values[i]
			}
			if _, err := stmt.ExecContext(ctx,
				t.ID.String(), t.Year, rec.Time.UTC().Unix(), name, i, value); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ReadTable(ctx context.Context, id seedid.StreamID, year int) (*Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT window_start, metric, metric_pos, value
		 FROM metric_records
		 WHERE stream = ? AND year = ?
		 ORDER BY window_start, metric_pos`,
		id.String(), year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &Table{ID: id, Year: year}
	var cur *types.MetricRecord
	for rows.Next() {
		var (
			windowStart int64
			metric      string
			pos         int
			value       sql.NullFloat64
		)
		if err := rows.Scan(&windowStart, &metric, &pos, &value); err != nil {
			return nil, err
		}
		if pos >= len(t.Metrics) {
			t.Metrics = append(t.Metrics, metric)
		}
		ts := time.Unix(windowStart, 0).UTC()
		if cur == nil || !cur.Time.Equal(ts) {
			t.Records = append(t.Records, types.MetricRecord{Time: ts})
			cur = &t.Records[len(t.Records)-1]
		}
		v := math.NaN()
		if value.Valid {
			v = value.Float64
		}
		cur.Values = append(cur.Values, v)
	}
	return t, rows.Err()
}
