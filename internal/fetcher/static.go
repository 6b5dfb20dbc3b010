package fetcher

import (
	"context"
	"net/url"
	"sync"

	"github.com/IshaanNene/bookscout/internal/types"
)

const notFoundPage = `<html><head><title>404 Not Found</title></head><body><h1>Not Found</h1></body></html>`

// StaticSession serves pages from memory. Unknown URLs load a bare
// "Not Found" page the way a browser would render a 404.
type StaticSession struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	current  *document
	history  []string
	closed   bool
}

// NewStaticSession creates a session serving pages keyed by absolute URL.
func NewStaticSession(pages map[string]string) *StaticSession {
	return &StaticSession{
		pages:    pages,
		failures: make(map[string]error),
	}
}

// FailOn makes navigation to rawURL return err wrapped in a NavigationError.
func (s *StaticSession) FailOn(rawURL string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[rawURL] = err
}

// Navigate loads the page registered for rawURL.
func (s *StaticSession) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	s.history = append(s.history, rawURL)

	if err, ok := s.failures[rawURL]; ok {
		return &types.NavigationError{URL: rawURL, Err: err}
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return &types.NavigationError{URL: rawURL, Err: err}
	}
	markup, ok := s.pages[rawURL]
	if !ok {
		markup = notFoundPage
	}
	doc, err := parseDocument(markup, base)
	if err != nil {
		return &types.NavigationError{URL: rawURL, Err: err}
	}
	s.current = doc
	return nil
}

// Links implements Session.
func (s *StaticSession) Links(ctx context.Context, xpath string) ([]string, error) {
	doc, err := s.page()
	if err != nil {
		return nil, err
	}
	return doc.links(xpath)
}

// InnerHTML implements Session.
func (s *StaticSession) InnerHTML(ctx context.Context, xpath string) (string, error) {
	doc, err := s.page()
	if err != nil {
		return "", err
	}
	return doc.innerHTML(xpath)
}

func (s *StaticSession) page() (*document, error) {
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

// History returns every URL passed to Navigate, in call order.
func (s *StaticSession) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// Closed reports whether Close has been called.
func (s *StaticSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Driver implements Session.
func (s *StaticSession) Driver() string { return "static" }

// Close implements Session.
func (s *StaticSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
