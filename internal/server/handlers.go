package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/plot"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

// streamEntry is one (stream, year) table visible under the store root.
type streamEntry struct {
	Stream string `json:"stream"`
	Year   int    `json:"year"`
}

// handleStreams lists the tables available under the store root.
func (c *Controller) handleStreams(w http.ResponseWriter, r *http.Request) {
	matches, err := filepath.Glob(filepath.Join(c.store.Root, "*.csv"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Encode an empty list as [], not null.
	entries := []streamEntry{}
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".csv")
		dot := strings.LastIndex(base, ".")
		if dot < 0 {
			continue
		}
		year, err := strconv.Atoi(base[dot+1:])
		if err != nil {
			continue
		}
		id, err := seedid.Parse(base[:dot])
		if err != nil {
			continue
		}
		entries = append(entries, streamEntry{Stream: id.String(), Year: year})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stream != entries[j].Stream {
			return entries[i].Stream < entries[j].Stream
		}
		return entries[i].Year < entries[j].Year
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// handlePlot renders an interactive chart for one table. Metric columns are
// selected with ?metrics=rsam,fratio; the whole table is plotted by default.
func (c *Controller) handlePlot(w http.ResponseWriter, r *http.Request) {
	table, ok := c.loadTable(w, r)
	if !ok {
		return
	}

	req := plot.Request{Metrics: table.Metrics}
	if q := r.URL.Query().Get("metrics"); q != "" {
		req.Metrics = strings.Split(q, ",")
	}
	if q := r.URL.Query().Get("from"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			http.Error(w, "bad from: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.From = t
	}
	if q := r.URL.Query().Get("to"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			http.Error(w, "bad to: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.To = t
	}

	series, err := plot.BuildSeries(table, req)
	if err != nil {
		c.plotErrors.Inc()
		switch {
		case errors.Is(err, types.ErrUnknownMetric):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, types.ErrEmptySelection):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := table.ID.String() + " " + strconv.Itoa(table.Year)
	if err := plot.RenderHTML(w, title, series); err != nil {
		c.plotErrors.Inc()
		log.Errorf("rendering chart for %s: %v", title, err)
		return
	}
	c.plotsRendered.Inc()
}

// handleTable serves the raw CSV for one table.
func (c *Controller) handleTable(w http.ResponseWriter, r *http.Request) {
	id, year, ok := c.parseSelector(w, r)
	if !ok {
		return
	}
	path := c.store.TablePath(id, year)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "no table for "+id.String()+" "+strconv.Itoa(year), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}

func (c *Controller) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (c *Controller) parseSelector(w http.ResponseWriter, r *http.Request) (seedid.StreamID, int, bool) {
	vars := mux.Vars(r)
	id, err := seedid.Parse(vars["stream"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return seedid.StreamID{}, 0, false
	}
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "bad year: "+err.Error(), http.StatusBadRequest)
		return seedid.StreamID{}, 0, false
	}
	return id, year, true
}

func (c *Controller) loadTable(w http.ResponseWriter, r *http.Request) (*storage.Table, bool) {
	id, year, ok := c.parseSelector(w, r)
	if !ok {
		return nil, false
	}
	table, err := c.store.ReadTable(r.Context(), id, year)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "no table for "+id.String()+" "+strconv.Itoa(year), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return table, true
}
