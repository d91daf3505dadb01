// Package main provides the metric computer: one summary-statistics record
// per fixed time window, appended into one table per channel per year.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/seismo-tools/seismopipe/internal/archive"
	"github.com/seismo-tools/seismopipe/internal/computer"
	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/metrics"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/pkg/config"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

func main() {
	cfgFile := flag.String("config", "", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	sdsRoot := flag.String("sds", "", "SDS archive root (overrides config)")
	outRoot := flag.String("out", "", "CSV table output directory (overrides config)")
	stream := flag.String("stream", "", "Stream to process as NET.STA.LOC.CHAN (required)")
	year := flag.Int("year", 0, "Year to process (required)")
	window := flag.Duration("window", constants.DefaultWindowLength, "Metric window length; must evenly divide one day")
	metricList := flag.String("metrics", "", "Comma-separated metric names (default: all registered)")
	logFile := flag.String("logfile", "", "Optional rotating log file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("rsam-compute %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.InitWithFile(*debug, *logFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *sdsRoot != "" {
		cfg.Archive.SDSRoot = *sdsRoot
	}
	if *outRoot != "" {
		cfg.Storage = config.StorageData{CSV: &config.CSVData{Root: *outRoot}}
	}
	if cfg.Archive.SDSRoot == "" {
		log.Fatalf("An SDS root is required; pass -sds or a -config file")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	if *stream == "" || *year == 0 {
		log.Fatalf("Both -stream and -year are required")
	}
	id, err := seedid.Parse(*stream)
	if err != nil {
		log.Fatalf("Invalid -stream: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open metric store: %v", err)
	}

	opts := computer.Options{
		Layout:       archive.Layout{Root: cfg.Archive.SDSRoot, Template: cfg.Archive.PathTemplate},
		Store:        store,
		Window:       windowLength(*window, cfg),
		MetricConfig: metricConfig(cfg),
	}
	if *metricList != "" {
		opts.Metrics = strings.Split(*metricList, ",")
	} else if len(cfg.Metrics.Metrics) > 0 {
		opts.Metrics = cfg.Metrics.Metrics
	}

	comp, err := computer.New(opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if _, err := comp.Run(ctx, id, *year); err != nil {
		log.Fatalf("Metric computation failed: %v", err)
	}
}

// openStore picks the configured metric table backend, defaulting to CSV
// files next to the SDS archive.
func openStore(ctx context.Context, cfg *config.ConfigData) (storage.MetricStore, error) {
	switch {
	case cfg.Storage.SQLite != nil:
		return storage.NewSQLiteStore(cfg.Storage.SQLite.Path)
	case cfg.Storage.TimescaleDB != nil:
		return storage.NewTimescaleDBStore(ctx, cfg.Storage.TimescaleDB.ConnectionString)
	case cfg.Storage.CSV != nil:
		return storage.NewCSVStore(cfg.Storage.CSV.Root), nil
	default:
		return storage.NewCSVStore("tables"), nil
	}
}

func windowLength(flagValue time.Duration, cfg *config.ConfigData) time.Duration {
	if flagValue != constants.DefaultWindowLength {
		return flagValue
	}
	if cfg.Metrics.WindowSeconds > 0 {
		return time.Duration(cfg.Metrics.WindowSeconds) * time.Second
	}
	return flagValue
}

func metricConfig(cfg *config.ConfigData) metrics.Config {
	mc := metrics.DefaultConfig()
	if f := cfg.Metrics.FRatio; f.LowMax > 0 || f.HighMax > 0 {
		mc = metrics.Config{
			LowMin:  f.LowMin,
			LowMax:  f.LowMax,
			HighMin: f.HighMin,
			HighMax: f.HighMax,
		}
	}
	return mc
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return &config.ConfigData{}, nil
	}

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(cfgFile)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	return provider.LoadConfig()
}
