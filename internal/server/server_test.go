package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/storage"
	"github.com/seismo-tools/seismopipe/internal/types"
	"github.com/seismo-tools/seismopipe/pkg/seedid"
)

func TestMain(m *testing.M) {
	log.Init(false)
	os.Exit(m.Run())
}

var testID = seedid.StreamID{Network: "NV", Station: "VOLC", Location: "00", Channel: "EHZ"}

func newTestServer(t *testing.T) (*httptest.Server, *storage.CSVStore) {
	t.Helper()
	store := storage.NewCSVStore(t.TempDir())
	c := New(context.Background(), &sync.WaitGroup{}, ":0", store)
	ts := httptest.NewServer(c.Server.Handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func seedTable(t *testing.T, store *storage.CSVStore, id seedid.StreamID, year int) {
	t.Helper()
	base := time.Date(year, 4, 4, 0, 0, 0, 0, time.UTC)
	table := &storage.Table{ID: id, Year: year, Metrics: []string{"rsam", "fratio"}}
	for i := 0; i < 5; i++ {
		v := float64(i + 1)
		if i == 2 {
			v = math.NaN()
		}
		table.Records = append(table.Records, types.MetricRecord{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Values: []float64{v, 0.5},
		})
	}
	require.NoError(t, store.WriteTable(context.Background(), table))
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestStreamsListsTables(t *testing.T) {
	ts, store := newTestServer(t)
	seedTable(t, store, testID, 2012)
	other := seedid.StreamID{Network: "NV", Station: "REF", Location: "00", Channel: "EHZ"}
	seedTable(t, store, other, 2013)

	resp, body := get(t, ts.URL+"/streams")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var entries []struct {
		Stream string `json:"stream"`
		Year   int    `json:"year"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "NV.REF.00.EHZ", entries[0].Stream)
	assert.Equal(t, 2013, entries[0].Year)
	assert.Equal(t, "NV.VOLC.00.EHZ", entries[1].Stream)
}

func TestStreamsEmptyRootIsJSONArray(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/streams")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(body))
}

func TestPlotRendersHTML(t *testing.T) {
	ts, store := newTestServer(t)
	seedTable(t, store, testID, 2012)

	resp, body := get(t, ts.URL+"/plot/NV.VOLC.00.EHZ/2012")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "echarts")
	assert.Contains(t, body, "rsam")
}

func TestPlotUnknownMetricIsBadRequest(t *testing.T) {
	ts, store := newTestServer(t)
	seedTable(t, store, testID, 2012)

	resp, _ := get(t, ts.URL+"/plot/NV.VOLC.00.EHZ/2012?metrics=centroid")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlotEmptyRangeIsNotFound(t *testing.T) {
	ts, store := newTestServer(t)
	seedTable(t, store, testID, 2012)

	resp, _ := get(t, ts.URL+"/plot/NV.VOLC.00.EHZ/2012?from=2015-01-01T00:00:00Z")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlotMissingTableIsNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/plot/NV.VOLC.00.EHZ/2012")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlotBadStreamIsBadRequest(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/plot/notastream/2012")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTableServesCSV(t *testing.T) {
	ts, store := newTestServer(t)
	seedTable(t, store, testID, 2012)

	resp, body := get(t, ts.URL+"/table/NV.VOLC.00.EHZ/2012")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(body, "time,rsam,fratio"))
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	seedTable(t, store, testID, 2012)

	// Render one chart, then the counters must be visible.
	get(t, ts.URL+"/plot/NV.VOLC.00.EHZ/2012")

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "seismopipe_plots_rendered_total 1")
	assert.Contains(t, body, "seismopipe_http_request_duration_seconds")
}
