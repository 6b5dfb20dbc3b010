package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for a scrape run.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	Registry         *prometheus.Registry
	NavigationsTotal *prometheus.CounterVec
	NavigationErrors *prometheus.CounterVec
	BooksListed      prometheus.Counter
	BooksReported    prometheus.Counter
	BooksFailed      prometheus.Counter
	FieldFallbacks   *prometheus.CounterVec
	ExtractDuration  prometheus.Histogram

	logger *slog.Logger
	server *http.Server
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	navigations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscout_navigations_total",
			Help: "Total page navigations by pipeline stage.",
		},
		[]string{"stage"},
	)
	navErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscout_navigation_errors_total",
			Help: "Total failed page navigations by pipeline stage.",
		},
		[]string{"stage"},
	)
	listed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_books_listed_total",
			Help: "Total book URLs collected from listing pages.",
		},
	)
	reported := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_books_reported_total",
			Help: "Total books extracted and reported.",
		},
	)
	failed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscout_books_failed_total",
			Help: "Total books whose extraction failed.",
		},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscout_field_fallbacks_total",
			Help: "Total placeholder values used, by field.",
		},
		[]string{"field"},
	)
	extractDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookscout_extract_duration_seconds",
			Help:    "Time to navigate to and parse one detail page.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(navigations, navErrors, listed, reported, failed, fallbacks, extractDuration)

	return &Metrics{
		Registry:         registry,
		NavigationsTotal: navigations,
		NavigationErrors: navErrors,
		BooksListed:      listed,
		BooksReported:    reported,
		BooksFailed:      failed,
		FieldFallbacks:   fallbacks,
		ExtractDuration:  extractDuration,
		logger:           logger.With("component", "metrics"),
	}
}

// ObserveNavigation counts a navigation for stage and, if err is set, a failure.
func (m *Metrics) ObserveNavigation(stage string, err error) {
	if m == nil {
		return
	}
	m.NavigationsTotal.WithLabelValues(stage).Inc()
	if err != nil {
		m.NavigationErrors.WithLabelValues(stage).Inc()
	}
}

// AddListed adds n collected book URLs.
func (m *Metrics) AddListed(n int) {
	if m == nil {
		return
	}
	m.BooksListed.Add(float64(n))
}

// ObserveBook records a reported book, its extraction time and the fields
// that fell back to placeholders.
func (m *Metrics) ObserveBook(d time.Duration, fallbacks []string) {
	if m == nil {
		return
	}
	m.BooksReported.Inc()
	m.ExtractDuration.Observe(d.Seconds())
	for _, f := range fallbacks {
		m.FieldFallbacks.WithLabelValues(f).Inc()
	}
}

// IncFailed increments the failed books counter.
func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.BooksFailed.Inc()
}

// Handler returns the HTTP mux serving metrics at path plus /health.
func (m *Metrics) Handler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	return mux
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) {
	addr := fmt.Sprintf(":%d", port)
	m.server = &http.Server{
		Addr:              addr,
		Handler:           m.Handler(path),
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
