package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/types"
)

// HTTPSession implements Session without a browser: pages are fetched with
// net/http and queried as static markup. books.toscrape.com renders fully
// server side, so the result matches what a browser sees.
type HTTPSession struct {
	client  *http.Client
	cfg     *config.Config
	stealth *StealthConfig
	cache   *lru.Cache[string, *document]
	logger  *slog.Logger

	mu      sync.Mutex
	current *document
	closed  bool
}

// HTTPOption configures the HTTPSession.
type HTTPOption func(*HTTPSession)

// WithTransport replaces the client transport.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(s *HTTPSession) { s.client.Transport = rt }
}

// NewHTTPSession creates a new HTTP session.
func NewHTTPSession(cfg *config.Config, logger *slog.Logger, opts ...HTTPOption) (*HTTPSession, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.HTTP.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConns,
		IdleConnTimeout:     cfg.HTTP.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}
	if cfg.Browser.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Browser.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	s := &HTTPSession{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.Browser.RequestTimeout,
		},
		cfg:    cfg,
		logger: logger.With("component", "http_session"),
	}

	if cfg.Browser.Stealth {
		s.stealth = DefaultStealthConfig()
		transport.TLSClientConfig = browserTLSConfig()
	}

	if cfg.HTTP.CacheSize > 0 {
		cache, err := lru.New[string, *document](cfg.HTTP.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create page cache: %w", err)
		}
		s.cache = cache
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("http session ready",
		"cache_size", cfg.HTTP.CacheSize,
		"stealth", s.stealth != nil,
	)

	return s, nil
}

// Navigate fetches rawURL and makes it the current page. Responses with a
// 4xx status still become the current page; 5xx and transport failures
// are navigation errors.
func (s *HTTPSession) Navigate(ctx context.Context, rawURL string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return types.ErrSessionClosed
	}

	if s.cache != nil {
		if doc, ok := s.cache.Get(rawURL); ok {
			s.logger.Debug("page served from cache", "url", rawURL)
			s.setCurrent(doc)
			return nil
		}
	}

	doc, status, err := s.fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if s.cache != nil && status < 300 {
		s.cache.Add(rawURL, doc)
	}
	s.setCurrent(doc)
	return nil
}

func (s *HTTPSession) fetch(ctx context.Context, rawURL string) (*document, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &types.NavigationError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if s.stealth != nil {
		s.stealth.applyBrowserHeaders(req)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, &types.NavigationError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, &types.NavigationError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	var reader io.Reader = resp.Body
	if s.cfg.HTTP.MaxBodySize > 0 {
		reader = io.LimitReader(reader, s.cfg.HTTP.MaxBodySize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, resp.StatusCode, &types.NavigationError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, &types.NavigationError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	// Relative links resolve against the final URL after redirects.
	base := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	doc, err := parseDocument(string(body), base)
	if err != nil {
		return nil, resp.StatusCode, &types.NavigationError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	s.logger.Debug("page fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)

	return doc, resp.StatusCode, nil
}

// Links implements Session.
func (s *HTTPSession) Links(ctx context.Context, xpath string) ([]string, error) {
	doc, err := s.page()
	if err != nil {
		return nil, err
	}
	return doc.links(xpath)
}

// InnerHTML implements Session.
func (s *HTTPSession) InnerHTML(ctx context.Context, xpath string) (string, error) {
	doc, err := s.page()
	if err != nil {
		return "", err
	}
	return doc.innerHTML(xpath)
}

// Driver implements Session.
func (s *HTTPSession) Driver() string { return "http" }

// Close releases idle connections and drops cached pages.
func (s *HTTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.current = nil
	if s.cache != nil {
		s.cache.Purge()
	}
	s.client.CloseIdleConnections()
	s.logger.Debug("http session closed")
	return nil
}

func (s *HTTPSession) setCurrent(doc *document) {
	s.mu.Lock()
	s.current = doc
	s.mu.Unlock()
}

func (s *HTTPSession) page() (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrSessionClosed
	}
	if s.current == nil {
		return parseDocument("", nil)
	}
	return s.current, nil
}

func (s *HTTPSession) userAgent() string {
	if s.cfg.Browser.UserAgent != "" {
		return s.cfg.Browser.UserAgent
	}
	return "BookScout/" + config.Version
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
