// Package main provides the archive reorganizer: it rewrites a flat archive
// of fixed-duration continuous record segments into the SDS day-file layout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seismo-tools/seismopipe/internal/archive"
	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/reorganizer"
	"github.com/seismo-tools/seismopipe/internal/segment"
	"github.com/seismo-tools/seismopipe/pkg/config"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

func main() {
	cfgFile := flag.String("config", "", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	source := flag.String("source", "", "Directory scanned recursively for segment files (overrides config)")
	dest := flag.String("dest", "", "SDS archive root (overrides config)")
	network := flag.String("network", "", "Network code stamped onto legacy streams (enables identifier fixups)")
	start := flag.String("start", "", "First day to process, YYYY-MM-DD (optional)")
	end := flag.String("end", "", "Last day to process, YYYY-MM-DD (optional)")
	workers := flag.Int("workers", 4, "Concurrent (stream, day) units")
	logFile := flag.String("logfile", "", "Optional rotating log file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sds-archiver %s\n", constants.Version)
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
	if *source != "" {
		cfg.Archive.SourceDir = *source
	}
	if *dest != "" {
		cfg.Archive.SDSRoot = *dest
	}
	if *network != "" {
		cfg.Archive.Network = *network
		cfg.Archive.LegacyFixups = true
	}
	if cfg.Archive.SourceDir == "" || cfg.Archive.SDSRoot == "" {
		log.Fatalf("Both a source directory and an SDS root are required; pass -source/-dest or a -config file")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	opts := reorganizer.Options{
		Source:  cfg.Archive.SourceDir,
		Layout:  archive.Layout{Root: cfg.Archive.SDSRoot, Template: cfg.Archive.PathTemplate},
		Codec:   segment.MsgpackCodec{},
		Workers: *workers,
	}
	if cfg.Archive.Workers > 0 {
		opts.Workers = cfg.Archive.Workers
	}
	if cfg.Archive.LegacyFixups {
		opts.Fixer = &seedid.Fixer{Network: cfg.Archive.Network}
	}
	if opts.From, err = parseDay(*start); err != nil {
		log.Fatalf("Invalid -start: %v", err)
	}
	if opts.To, err = parseDay(*end); err != nil {
		log.Fatalf("Invalid -end: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := reorganizer.New(opts).Run(ctx); err != nil {
		log.Fatalf("Reorganization failed: %v", err)
	}
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

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
