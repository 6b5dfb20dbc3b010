package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingPage = `<html><body>
<ol class="row">
  <li><article class="product_pod"><div class="image_container"><a href="../../../its-only-the-himalayas_981/index.html"><img src="x.jpg"></a></div></article></li>
  <li><article class="product_pod"><div class="image_container"><a href="../../../full-moon-over-noahs-ark_811/index.html"><img src="y.jpg"></a></div></article></li>
  <li><article class="product_pod"><div class="image_container"><a>no href</a></div></article></li>
</ol>
<div class="content"><h1>Travel</h1></div>
</body></html>`

const travelURL = "https://books.toscrape.com/catalogue/category/books/travel_2/index.html"

// --- WaitFor Tests ---

func TestWaitForReady(t *testing.T) {
	calls := 0
	ok, err := WaitFor(context.Background(), time.Millisecond, time.Second, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil || !ok {
		t.Fatalf("expected ready, got ok=%v err=%v", ok, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 probes, got %d", calls)
	}
}

func TestWaitForTimeout(t *testing.T) {
	ok, err := WaitFor(context.Background(), time.Millisecond, 20*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("timeout should not be an error: %v", err)
	}
	if ok {
		t.Error("expected not ready")
	}
}

func TestWaitForZeroTimeoutProbesOnce(t *testing.T) {
	calls := 0
	ok, _ := WaitFor(context.Background(), time.Millisecond, 0, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if ok || calls != 1 {
		t.Errorf("expected a single failed probe, got ok=%v calls=%d", ok, calls)
	}
}

func TestWaitForProbeError(t *testing.T) {
	boom := errors.New("boom")
	_, err := WaitFor(context.Background(), time.Millisecond, time.Second, func(context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected probe error, got %v", err)
	}
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WaitFor(ctx, time.Hour, 2*time.Hour, func(context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// --- StaticSession Tests ---

func TestStaticSessionLinksResolved(t *testing.T) {
	s := NewStaticSession(map[string]string{travelURL: listingPage})
	ctx := context.Background()

	if err := s.Navigate(ctx, travelURL); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	links, err := s.Links(ctx, "//div[@class='image_container']//a")
	if err != nil {
		t.Fatalf("links: %v", err)
	}

	want := []string{
		"https://books.toscrape.com/catalogue/its-only-the-himalayas_981/index.html",
		"https://books.toscrape.com/catalogue/full-moon-over-noahs-ark_811/index.html",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: expected %q, got %q", i, want[i], links[i])
		}
	}
}

func TestStaticSessionInnerHTML(t *testing.T) {
	s := NewStaticSession(map[string]string{travelURL: listingPage})
	ctx := context.Background()
	_ = s.Navigate(ctx, travelURL)

	markup, err := s.InnerHTML(ctx, "//div[@class='content']")
	if err != nil {
		t.Fatalf("inner html: %v", err)
	}
	if markup != "<h1>Travel</h1>" {
		t.Errorf("unexpected markup: %q", markup)
	}

	_, err = s.InnerHTML(ctx, "//div[@id='missing']")
	if !errors.Is(err, types.ErrElementNotFound) {
		t.Errorf("expected ErrElementNotFound, got %v", err)
	}
}

func TestStaticSessionUnknownPage(t *testing.T) {
	s := NewStaticSession(nil)
	ctx := context.Background()

	if err := s.Navigate(ctx, "https://books.toscrape.com/page-9.html"); err != nil {
		t.Fatalf("unknown page should load like a 404: %v", err)
	}
	links, err := s.Links(ctx, "//a")
	if err != nil || len(links) != 0 {
		t.Errorf("expected no links, got %v (err=%v)", links, err)
	}
}

func TestStaticSessionFailOnAndClose(t *testing.T) {
	s := NewStaticSession(nil)
	ctx := context.Background()
	s.FailOn("https://down.example/", errors.New("net::ERR_CONNECTION_REFUSED"))

	err := s.Navigate(ctx, "https://down.example/")
	var navErr *types.NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NavigationError, got %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if !s.Closed() {
		t.Error("expected session closed")
	}
	if err := s.Navigate(ctx, travelURL); !errors.Is(err, types.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}

	hist := s.History()
	if len(hist) != 1 || hist[0] != "https://down.example/" {
		t.Errorf("unexpected history: %v", hist)
	}
}

// --- HTTPSession Tests ---

func newMockedHTTPSession(t *testing.T, cacheSize int) (*HTTPSession, *httpmock.MockTransport) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Browser.Driver = "http"
	cfg.HTTP.CacheSize = cacheSize

	transport := httpmock.NewMockTransport()
	s, err := NewHTTPSession(cfg, testLogger, WithTransport(transport))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, transport
}

func TestHTTPSessionNavigateAndQuery(t *testing.T) {
	s, transport := newMockedHTTPSession(t, 8)
	transport.RegisterResponder(http.MethodGet, travelURL, httpmock.NewStringResponder(200, listingPage))

	ctx := context.Background()
	if err := s.Navigate(ctx, travelURL); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	links, err := s.Links(ctx, "//div[@class='image_container']//a")
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %v", links)
	}
	if links[0] != "https://books.toscrape.com/catalogue/its-only-the-himalayas_981/index.html" {
		t.Errorf("unexpected first link: %q", links[0])
	}
}

func TestHTTPSessionCachesPages(t *testing.T) {
	s, transport := newMockedHTTPSession(t, 8)
	transport.RegisterResponder(http.MethodGet, travelURL, httpmock.NewStringResponder(200, listingPage))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Navigate(ctx, travelURL); err != nil {
			t.Fatalf("navigate %d: %v", i, err)
		}
	}
	if n := transport.GetTotalCallCount(); n != 1 {
		t.Errorf("expected 1 request with caching, got %d", n)
	}
}

func TestHTTPSessionWithoutCache(t *testing.T) {
	s, transport := newMockedHTTPSession(t, 0)
	transport.RegisterResponder(http.MethodGet, travelURL, httpmock.NewStringResponder(200, listingPage))

	ctx := context.Background()
	_ = s.Navigate(ctx, travelURL)
	_ = s.Navigate(ctx, travelURL)
	if n := transport.GetTotalCallCount(); n != 2 {
		t.Errorf("expected 2 requests without cache, got %d", n)
	}
}

func TestHTTPSessionBrotli(t *testing.T) {
	s, transport := newMockedHTTPSession(t, 0)

	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte(listingPage)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	transport.RegisterResponder(http.MethodGet, travelURL, func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewBytesResponse(200, buf.Bytes())
		resp.Header.Set("Content-Encoding", "br")
		return resp, nil
	})

	ctx := context.Background()
	if err := s.Navigate(ctx, travelURL); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	markup, err := s.InnerHTML(ctx, "//div[@class='content']")
	if err != nil {
		t.Fatalf("inner html: %v", err)
	}
	if markup != "<h1>Travel</h1>" {
		t.Errorf("unexpected markup: %q", markup)
	}
}

func TestHTTPSessionStatusHandling(t *testing.T) {
	s, transport := newMockedHTTPSession(t, 8)
	missing := "https://books.toscrape.com/catalogue/category/books/travel_2/page-2.html"
	broken := "https://books.toscrape.com/broken.html"
	transport.RegisterResponder(http.MethodGet, missing, httpmock.NewStringResponder(404, "<html><body><h1>404 Not Found</h1></body></html>"))
	transport.RegisterResponder(http.MethodGet, broken, httpmock.NewStringResponder(503, "unavailable"))

	ctx := context.Background()
	if err := s.Navigate(ctx, missing); err != nil {
		t.Fatalf("404 should load as a page: %v", err)
	}
	links, _ := s.Links(ctx, "//div[@class='image_container']//a")
	if len(links) != 0 {
		t.Errorf("expected no thumbnails on a 404 page, got %v", links)
	}

	err := s.Navigate(ctx, broken)
	var navErr *types.NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
	if navErr.StatusCode != 503 {
		t.Errorf("expected status 503, got %d", navErr.StatusCode)
	}
}

func TestHTTPSessionTransportError(t *testing.T) {
	s, _ := newMockedHTTPSession(t, 8)

	// No responder registered: the mock transport refuses the request.
	err := s.Navigate(context.Background(), "https://books.toscrape.com/")
	var navErr *types.NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
}

func TestHTTPSessionClosed(t *testing.T) {
	s, _ := newMockedHTTPSession(t, 8)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if err := s.Navigate(context.Background(), travelURL); !errors.Is(err, types.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Links(context.Background(), "//a"); !errors.Is(err, types.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

// --- Open / helpers ---

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Driver = "selenium"
	_, err := Open(context.Background(), cfg, testLogger)
	if !errors.Is(err, types.ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestOpenHTTPDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Driver = "http"
	s, err := Open(context.Background(), cfg, testLogger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if s.Driver() != "http" {
		t.Errorf("expected http driver, got %q", s.Driver())
	}
}

func TestParseWindowSize(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"1920,1080", 1920, 1080, true},
		{" 1366 , 768 ", 1366, 768, true},
		{"1920x1080", 0, 0, false},
		{"", 0, 0, false},
		{"a,b", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, ok := parseWindowSize(tt.in)
		if w != tt.w || h != tt.h || ok != tt.ok {
			t.Errorf("parseWindowSize(%q) = %d,%d,%v; want %d,%d,%v", tt.in, w, h, ok, tt.w, tt.h, tt.ok)
		}
	}
}

func TestJSString(t *testing.T) {
	got := jsString(`//a[contains(text(),'Travel')]`)
	if got != `"//a[contains(text(),'Travel')]"` {
		t.Errorf("unexpected literal: %s", got)
	}
}
