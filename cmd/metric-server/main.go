// Package main provides the metric server: interactive charts over computed
// metric tables, for operators who want a browser instead of PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/server"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	root := flag.String("root", "", "CSV table directory to serve (overrides config)")
	listen := flag.String("listen", "", "Listen address, e.g. :8070 (overrides config)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("metric-server %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *root != "" {
		cfg.Storage = config.StorageData{CSV: &config.CSVData{Root: *root}}
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}
	if cfg.Storage.CSV == nil {
		log.Fatalf("A CSV table directory is required; pass -root or a -config file")
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8070"
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	ctrl := server.New(ctx, &wg, cfg.Server.ListenAddr, storage.NewCSVStore(cfg.Storage.CSV.Root))
	if err := ctrl.Start(); err != nil {
		log.Fatalf("Failed to start metric server: %v", err)
	}

	<-ctx.Done()
	wg.Wait()
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
