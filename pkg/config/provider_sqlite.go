package config

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Configuration lives in a single key/value table so observatory operators
// can adjust parameters with nothing but the sqlite3 shell.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	kv, err := s.loadKV()
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		Archive: ArchiveData{
			SourceDir:    kv["archive.source_dir"],
			SDSRoot:      kv["archive.sds_root"],
			PathTemplate: kv["archive.path_template"],
			Network:      kv["archive.network"],
			LegacyFixups: kv["archive.legacy_fixups"] == "true",
			Workers:      atoiOrZero(kv["archive.workers"]),
		},
		Metrics: MetricsData{
			WindowSeconds: atoiOrZero(kv["metrics.window_seconds"]),
			FRatio: FRatioData{
				LowMin:  atofOrZero(kv["metrics.fratio.low_min"]),
				LowMax:  atofOrZero(kv["metrics.fratio.low_max"]),
				HighMin: atofOrZero(kv["metrics.fratio.high_min"]),
				HighMax: atofOrZero(kv["metrics.fratio.high_max"]),
			},
		},
		Server: ServerData{
			ListenAddr: kv["server.listen_addr"],
		},
	}
	if v := kv["metrics.metrics"]; v != "" {
		config.Metrics.Metrics = strings.Split(v, ",")
	}
	if v := kv["storage.csv.root"]; v != "" {
		config.Storage.CSV = &CSVData{Root: v}
	}
	if v := kv["storage.sqlite.path"]; v != "" {
		config.Storage.SQLite = &SQLiteData{Path: v}
	}
	if v := kv["storage.timescaledb.connection_string"]; v != "" {
		config.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: v}
	}

	return config, nil
}

// GetArchiveConfig returns the archive configuration section
func (s *SQLiteProvider) GetArchiveConfig() (*ArchiveData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Archive, nil
}

// GetMetricsConfig returns the metrics configuration section
func (s *SQLiteProvider) GetMetricsConfig() (*MetricsData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Metrics, nil
}

// GetStorageConfig returns the storage configuration section
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// GetServerConfig returns the server configuration section
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Server, nil
}

// IsReadOnly returns false; the SQLite backend can be edited in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

// SetValue writes one configuration key, creating the table if needed.
func (s *SQLiteProvider) SetValue(key, value string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO config (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *SQLiteProvider) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteProvider) loadKV() (map[string]string, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		kv[k] = v
	}
	return kv, rows.Err()
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atofOrZero(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
