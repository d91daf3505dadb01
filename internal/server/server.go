// Package server exposes computed metric tables over HTTP: interactive
// charts per stream and year, plus Prometheus instrumentation. It is purely
// read-only over the table root.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seismo-tools/seismopipe/internal/log"
	"github.com/seismo-tools/seismopipe/internal/storage"
)

// Controller represents the metric HTTP server
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	store    *storage.CSVStore
	registry *prometheus.Registry
	Server   http.Server

	plotsRendered prometheus.Counter
	plotErrors    prometheus.Counter
	requestTimer  *prometheus.HistogramVec
}

// New creates a metric server reading tables from a CSV store.
func New(ctx context.Context, wg *sync.WaitGroup, listenAddr string, store *storage.CSVStore) *Controller {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	c := &Controller{
		ctx:      ctx,
		wg:       wg,
		store:    store,
		registry: registry,
		plotsRendered: factory.NewCounter(prometheus.CounterOpts{
			Name: "seismopipe_plots_rendered_total",
			Help: "Number of charts rendered.",
		}),
		plotErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "seismopipe_plot_errors_total",
			Help: "Number of chart requests that failed.",
		}),
		requestTimer: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seismopipe_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	c.Server = http.Server{
		Addr:         listenAddr,
		Handler:      c.setupRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return c
}

// Start runs the HTTP server until the controller context is cancelled.
func (c *Controller) Start() error {
	log.Infof("metric server listening on %s", c.Server.Addr)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("metric server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("shutting down the metric server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/streams", c.timed("streams", c.handleStreams))
	router.HandleFunc("/plot/{stream}/{year}", c.timed("plot", c.handlePlot))
	router.HandleFunc("/table/{stream}/{year}", c.timed("table", c.handleTable))
	router.HandleFunc("/healthz", c.handleHealth)
	router.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	return router
}

func (c *Controller) timed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		c.requestTimer.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
