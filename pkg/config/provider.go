// Package config loads pipeline configuration from YAML files or SQLite
// databases behind a common provider interface.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetArchiveConfig() (*ArchiveData, error)
	GetMetricsConfig() (*MetricsData, error)
	GetStorageConfig() (*StorageData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Archive ArchiveData `json:"archive"`
	Metrics MetricsData `json:"metrics"`
	Storage StorageData `json:"storage,omitempty"`
	Server  ServerData  `json:"server,omitempty"`
}

// ArchiveData configures the segment source and the SDS destination.
type ArchiveData struct {
	SourceDir    string `json:"source_dir"`
	SDSRoot      string `json:"sds_root"`
	PathTemplate string `json:"path_template,omitempty"`
	Network      string `json:"network,omitempty" validate:"omitempty,min=1,max=2"`
	LegacyFixups bool   `json:"legacy_fixups,omitempty"`
	Workers      int    `json:"workers,omitempty" validate:"gte=0,lte=64"`
}

// MetricsData configures the metric computation stage.
type MetricsData struct {
	WindowSeconds int      `json:"window_seconds,omitempty" validate:"gte=0"`
	Metrics       []string `json:"metrics,omitempty"`
	FRatio        FRatioData
}

// FRatioData holds the frequency-ratio band edges in Hz.
type FRatioData struct {
	LowMin  float64 `json:"low_min,omitempty" validate:"gte=0"`
	LowMax  float64 `json:"low_max,omitempty" validate:"gte=0,gtefield=LowMin"`
	HighMin float64 `json:"high_min,omitempty" validate:"gte=0"`
	HighMax float64 `json:"high_max,omitempty" validate:"gte=0,gtefield=HighMin"`
}

// StorageData selects the metric table backend. Exactly one should be set;
// CSV is the default when none is.
type StorageData struct {
	CSV         *CSVData         `json:"csv,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

// CSVData holds the configuration for the CSV table backend
type CSVData struct {
	Root string `json:"root" validate:"required"`
}

// SQLiteData holds the configuration for the SQLite table backend
type SQLiteData struct {
	Path string `json:"path" validate:"required"`
}

// TimescaleDBData holds the configuration for the TimescaleDB table backend
type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" validate:"required"`
}

// ServerData configures the metric HTTP server.
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
}

// Validate checks a loaded configuration for structural problems before any
// stage starts work. Run-parameter errors abort immediately.
func Validate(cfg *ConfigData) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	backends := 0
	for _, set := range []bool{
		cfg.Storage.CSV != nil,
		cfg.Storage.SQLite != nil,
		cfg.Storage.TimescaleDB != nil,
	} {
		if set {
			backends++
		}
	}
	if backends > 1 {
		return fmt.Errorf("invalid configuration: multiple metric storage backends configured")
	}
	return nil
}
