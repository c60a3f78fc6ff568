// Package metric exposes pipeline counters through Prometheus. Runs over
// large corpora take a while; an optional listener makes progress
// observable without scraping logs.
package metric

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters in a private registry so concurrent
// runs in one process cannot collide.
type Metrics struct {
	registry *prometheus.Registry

	RecordsRead prometheus.Counter
	RowsKept    prometheus.Counter
	RowsSkipped *prometheus.CounterVec
	RowsWritten *prometheus.CounterVec
}

// New creates a Metrics with all counters registered.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RecordsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vulncorpus",
		Name:      "records_read_total",
		Help:      "Source records seen across all inputs.",
	})
	m.RowsKept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vulncorpus",
		Name:      "rows_kept_total",
		Help:      "Canonical rows built from source records.",
	})
	m.RowsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vulncorpus",
		Name:      "rows_skipped_total",
		Help:      "Records skipped during extraction, by reason.",
	}, []string{"reason"})
	m.RowsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vulncorpus",
		Name:      "rows_written_total",
		Help:      "Rows written to output files, by split.",
	}, []string{"split"})

	m.registry.MustRegister(m.RecordsRead, m.RowsKept, m.RowsSkipped, m.RowsWritten)
	return m
}

// ObserveBuild records one build's counters.
func (m *Metrics) ObserveBuild(records, kept int, skips map[string]int) {
	m.RecordsRead.Add(float64(records))
	m.RowsKept.Add(float64(kept))
	for reason, n := range skips {
		m.RowsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveWrite records rows written for one split.
func (m *Metrics) ObserveWrite(split string, rows int) {
	m.RowsWritten.WithLabelValues(split).Add(float64(rows))
}

// Serve exposes /metrics on addr in a background goroutine. Listener
// failures are logged, not fatal; metrics are a convenience, the pipeline
// result is not.
func (m *Metrics) Serve(addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener failed", "error", err)
		}
	}()
}
