package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// TimescaleDBStore keeps metric tables in TimescaleDB for observatories that
// feed the records into dashboards. The hypertable is partitioned on window
// start.
type TimescaleDBStore struct {
	db *gorm.DB
}

type metricRow struct {
	Stream      string    `gorm:"primaryKey;size:24"`
	Year        int       `gorm:"primaryKey"`
	WindowStart time.Time `gorm:"primaryKey"`
	Metric      string    `gorm:"primaryKey;size:16"`
	MetricPos   int
	Value       *float64
}

// TableName customizes the table name used by GORM
func (metricRow) TableName() string {
	return "metric_records"
}

// NewTimescaleDBStore connects to TimescaleDB and prepares the hypertable.
func NewTimescaleDBStore(ctx context.Context, connectionString string) (*TimescaleDBStore, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("could not connect to TimescaleDB: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&metricRow{}); err != nil {
		return nil, fmt.Errorf("could not migrate metric_records table: %w", err)
	}

	// Hypertable conversion is best-effort: plain PostgreSQL works too, it
	// just won't get time partitioning.
	err = db.WithContext(ctx).Exec(
		`SELECT create_hypertable('metric_records', 'window_start', if_not_exists => TRUE)`).Error
	if err != nil {
		log.Warn("could not create hypertable (is the timescaledb extension installed?):", err)
	}

	return &TimescaleDBStore{db: db}, nil
}

func (s *TimescaleDBStore) WriteTable(ctx context.Context, t *Table) error {
	rows := make([]metricRow, 0, len(t.Records)*len(t.Metrics))
	for _, rec := range t.Records {
		for i, name := range t.Metrics {
			row := metricRow{
				Stream:      t.ID.String(),
				Year:        t.Year,
				WindowStart: rec.Time.UTC(),
				Metric:      name,
				MetricPos:   i,
			}
			if !rec.Missing(i) {
				v := rec.Values[i]
				row.Value = &v
			}
			rows = append(rows, row)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stream = ? AND year = ?", t.ID.String(), t.Year).
			Delete(&metricRow{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(rows, 1000).Error
	})
}

func (s *TimescaleDBStore) ReadTable(ctx context.Context, id seedid.StreamID, year int) (*Table, error) {
	var rows []metricRow
	err := s.db.WithContext(ctx).
		Where("stream = ? AND year = ?", id.String(), year).
		Order("window_start, metric_pos").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	t := &Table{ID: id, Year: year}
	var cur *types.MetricRecord
	for _, row := range rows {
		if row.MetricPos >= len(t.Metrics) {
			t.Metrics = append(t.Metrics, row.Metric)
		}
		ts := row.WindowStart.UTC()
		if cur == nil || !cur.Time.Equal(ts) {
			t.Records = append(t.Records, types.MetricRecord{Time: ts})
			cur = &t.Records[len(t.Records)-1]
		}
		v := math.NaN()
		if row.Value != nil {
			v = *row.Value
		}
		cur.Values = append(cur.Values, v)
	}
	return t, nil
}
