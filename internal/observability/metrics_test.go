package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(testLogger)

	m.ObserveNavigation("listing", nil)
	m.ObserveNavigation("listing", errors.New("timeout"))
	m.ObserveNavigation("detail", nil)
	m.AddListed(20)
	m.ObserveBook(150*time.Millisecond, []string{"price"})
	m.ObserveBook(100*time.Millisecond, nil)
	m.IncFailed()

	if got := testutil.ToFloat64(m.NavigationsTotal.WithLabelValues("listing")); got != 2 {
		t.Errorf("expected 2 listing navigations, got %v", got)
	}
	if got := testutil.ToFloat64(m.NavigationErrors.WithLabelValues("listing")); got != 1 {
		t.Errorf("expected 1 listing error, got %v", got)
	}
	if got := testutil.ToFloat64(m.BooksListed); got != 20 {
		t.Errorf("expected 20 listed, got %v", got)
	}
	if got := testutil.ToFloat64(m.BooksReported); got != 2 {
		t.Errorf("expected 2 reported, got %v", got)
	}
	if got := testutil.ToFloat64(m.BooksFailed); got != 1 {
		t.Errorf("expected 1 failed, got %v", got)
	}
	if got := testutil.ToFloat64(m.FieldFallbacks.WithLabelValues("price")); got != 1 {
		t.Errorf("expected 1 price fallback, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveNavigation("category", nil)
	m.AddListed(1)
	m.ObserveBook(time.Second, []string{"name"})
	m.IncFailed()
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("nil shutdown should be a no-op: %v", err)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(testLogger)
	m.AddListed(3)

	srv := httptest.NewServer(m.Handler("/metrics"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "bookscout_books_listed_total 3") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("unexpected health response: %d %q", resp.StatusCode, body)
	}
}
