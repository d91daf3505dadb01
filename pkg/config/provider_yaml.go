package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Archive struct {
			SourceDir    string `yaml:"source_dir"`
			SDSRoot      string `yaml:"sds_root"`
			PathTemplate string `yaml:"path_template,omitempty"`
			Network      string `yaml:"network,omitempty"`
			LegacyFixups bool   `yaml:"legacy_fixups,omitempty"`
			Workers      int    `yaml:"workers,omitempty"`
		} `yaml:"archive"`
		Metrics struct {
			WindowSeconds int      `yaml:"window_seconds,omitempty"`
			Metrics       []string `yaml:"metrics,omitempty"`
			FRatio        struct {
				LowMin  float64 `yaml:"low_min,omitempty"`
				LowMax  float64 `yaml:"low_max,omitempty"`
				HighMin float64 `yaml:"high_min,omitempty"`
				HighMax float64 `yaml:"high_max,omitempty"`
			} `yaml:"fratio,omitempty"`
		} `yaml:"metrics"`
		Storage struct {
			CSV *struct {
				Root string `yaml:"root"`
			} `yaml:"csv,omitempty"`
			SQLite *struct {
				Path string `yaml:"path"`
			} `yaml:"sqlite,omitempty"`
			TimescaleDB *struct {
				ConnectionString string `yaml:"connection_string"`
			} `yaml:"timescaledb,omitempty"`
		} `yaml:"storage,omitempty"`
		Server struct {
			ListenAddr string `yaml:"listen_addr,omitempty"`
		} `yaml:"server,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Archive: ArchiveData{
			SourceDir:    yamlConfig.Archive.SourceDir,
			SDSRoot:      yamlConfig.Archive.SDSRoot,
			PathTemplate: yamlConfig.Archive.PathTemplate,
			Network:      yamlConfig.Archive.Network,
			LegacyFixups: yamlConfig.Archive.LegacyFixups,
			Workers:      yamlConfig.Archive.Workers,
		},
		Metrics: MetricsData{
			WindowSeconds: yamlConfig.Metrics.WindowSeconds,
			Metrics:       yamlConfig.Metrics.Metrics,
			FRatio: FRatioData{
				LowMin:  yamlConfig.Metrics.FRatio.LowMin,
				LowMax:  yamlConfig.Metrics.FRatio.LowMax,
				HighMin: yamlConfig.Metrics.FRatio.HighMin,
				HighMax: yamlConfig.Metrics.FRatio.HighMax,
			},
		},
		Server: ServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
		},
	}

	if yamlConfig.Storage.CSV != nil {
		config.Storage.CSV = &CSVData{Root: yamlConfig.Storage.CSV.Root}
	}
	if yamlConfig.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: yamlConfig.Storage.SQLite.Path}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}

	y.config = config
	return config, nil
}

// GetArchiveConfig returns the archive configuration section
func (y *YAMLProvider) GetArchiveConfig() (*ArchiveData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Archive, nil
}

// GetMetricsConfig returns the metrics configuration section
func (y *YAMLProvider) GetMetricsConfig() (*MetricsData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Metrics, nil
}

// GetStorageConfig returns the storage configuration section
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Storage, nil
}

// GetServerConfig returns the server configuration section
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Server, nil
}

// IsReadOnly returns true; YAML files are not modified by the pipeline
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) ensureLoaded() error {
	if y.config != nil {
		return nil
	}
	_, err := y.LoadConfig()
	return err
}
