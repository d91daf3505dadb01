// Package main provides the metric visualizer: it renders per-channel-year
// tables as time-series charts, one PNG or HTML file per table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seismo-tools/seismopipe/internal/constants"
	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/plot"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

func main() {
	tables := flag.String("tables", "", "Comma-separated table CSV paths (alternative to -root/-stream/-years)")
	root := flag.String("root", "", "CSV table directory used with -stream and -years")
	stream := flag.String("stream", "", "Stream selector as NET.STA.LOC.CHAN")
	years := flag.String("years", "", "Year or year range, e.g. 2012 or 2012-2014")
	metricList := flag.String("metrics", "rsam,fratio", "Comma-separated metric names to plot")
	from := flag.String("from", "", "Start of time-range filter, RFC3339 (optional)")
	to := flag.String("to", "", "End of time-range filter, RFC3339 (optional)")
	format := flag.String("format", "png", "Output format: 'png' or 'html'")
	outDir := flag.String("out", "plots", "Output directory")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("metric-plot %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	paths, err := resolveTables(*tables, *root, *stream, *years)
	if err != nil {
		log.Fatalf("%v", err)
	}

	req := plot.Request{Metrics: strings.Split(*metricList, ",")}
	if req.From, err = parseTime(*from); err != nil {
		log.Fatalf("Invalid -from: %v", err)
	}
	if req.To, err = parseTime(*to); err != nil {
		log.Fatalf("Invalid -to: %v", err)
	}

	failed := 0
	for _, path := range paths {
		if err := plotTable(path, req, *format, *outDir); err != nil {
			// A run-parameter problem like an unknown metric poisons every
			// table the same way, so abort instead of repeating the error.
			if errors.Is(err, types.ErrUnknownMetric) {
				log.Fatalf("%v", err)
			}
			log.Errorf("plotting %s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		log.Fatalf("%d of %d tables failed to plot", failed, len(paths))
	}
}

func plotTable(path string, req plot.Request, format, outDir string) error {
	table, err := storage.ReadCSVTable(path)
	if err != nil {
		return err
	}

	series, err := plot.BuildSeries(table, req)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), ".csv")
	title := fmt.Sprintf("%s %d", table.ID, table.Year)
	switch format {
	case "png":
		out := filepath.Join(outDir, base+".png")
		if err := plot.RenderPNG(out, title, series); err != nil {
			return err
		}
		log.Infof("wrote %s", out)
	case "html":
		out := filepath.Join(outDir, base+".html")
		if err := plot.RenderHTMLFile(out, title, series); err != nil {
			return err
		}
		log.Infof("wrote %s", out)
	default:
		return fmt.Errorf("unsupported format %q: use 'png' or 'html'", format)
	}
	return nil
}

// resolveTables turns either an explicit path list or a (root, stream,
// year-range) selector into table file paths.
func resolveTables(tables, root, stream, years string) ([]string, error) {
	if tables != "" {
		return strings.Split(tables, ","), nil
	}
	if root == "" || stream == "" || years == "" {
		return nil, fmt.Errorf("pass either -tables or all of -root, -stream and -years")
	}

	id, err := seedid.Parse(stream)
	if err != nil {
		return nil, err
	}
	first, last, err := parseYearRange(years)
	if err != nil {
		return nil, err
	}

	store := storage.NewCSVStore(root)
	var paths []string
	for y := first; y <= last; y++ {
		path := store.TablePath(id, y)
		if _, err := os.Stat(path); err != nil {
			log.Warnf("no table for %s %d under %s", id, y, root)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no tables found for %s years %s under %s", id, years, root)
	}
	return paths, nil
}

func parseYearRange(s string) (int, int, error) {
	var first, last int
	if strings.Contains(s, "-") {
		if _, err := fmt.Sscanf(s, "%d-%d", &first, &last); err != nil {
			return 0, 0, fmt.Errorf("invalid year range %q", s)
		}
	} else {
		if _, err := fmt.Sscanf(s, "%d", &first); err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", s)
		}
		last = first
	}
	if last < first {
		first, last = last, first
	}
	return first, last, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
