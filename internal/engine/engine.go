package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/fetcher"
	"github.com/IshaanNene/bookscout/internal/observability"
	"github.com/IshaanNene/bookscout/internal/parser"
	"github.com/IshaanNene/bookscout/internal/report"
)

// SessionOpener starts the session a run drives.
type SessionOpener func(ctx context.Context) (fetcher.Session, error)

// Progress is notified before every navigation.
type Progress interface {
	Step(stage, url string)
	Done()
}

// Stats tracks run statistics.
type Stats struct {
	Categories     atomic.Int64
	ListingPages   atomic.Int64
	BooksListed    atomic.Int64
	BooksReported  atomic.Int64
	BooksFailed    atomic.Int64
	FieldFallbacks atomic.Int64
	StartTime      time.Time
}

// Snapshot returns a point-in-time copy of all stats.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"categories":      s.Categories.Load(),
		"listing_pages":   s.ListingPages.Load(),
		"books_listed":    s.BooksListed.Load(),
		"books_reported":  s.BooksReported.Load(),
		"books_failed":    s.BooksFailed.Load(),
		"field_fallbacks": s.FieldFallbacks.Load(),
		"elapsed":         time.Since(s.StartTime).String(),
	}
}

// Engine runs the scrape: category discovery, pagination, then detail
// extraction and reporting, one page at a time on a single session.
type Engine struct {
	cfg      *config.Config
	parser   parser.Parser
	reporter report.Reporter
	metrics  *observability.Metrics
	progress Progress
	logger   *slog.Logger
	stats    *Stats
}

// Option configures the Engine.
type Option func(*Engine)

// WithMetrics records run metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithProgress reports each step to p.
func WithProgress(p Progress) Option {
	return func(e *Engine) { e.progress = p }
}

// WithParser replaces the default goquery book parser.
func WithParser(p parser.Parser) Option {
	return func(e *Engine) { e.parser = p }
}

// New creates a new engine.
func New(cfg *config.Config, reporter report.Reporter, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		reporter: reporter,
		logger:   logger.With("component", "engine"),
		stats:    &Stats{StartTime: time.Now()},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		e.parser = parser.NewBookParser(logger)
	}
	return e
}

// Stats returns the current run statistics.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Run opens a session, scrapes, and closes the session on every exit
// path. A close failure is joined into the returned error.
//
// Unless run.continue_on_error is set, the first failure aborts the run.
func (e *Engine) Run(ctx context.Context, open SessionOpener) (err error) {
	e.stats.StartTime = time.Now()

	sess, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	e.logger.Info("session opened", "driver", sess.Driver())

	defer func() {
		if e.progress != nil {
			e.progress.Done()
		}
		if cerr := sess.Close(); cerr != nil {
			e.logger.Error("session close failed", "error", cerr)
			err = errors.Join(err, fmt.Errorf("close session: %w", cerr))
			return
		}
		e.logger.Info("session closed", "driver", sess.Driver())
	}()

	return e.scrape(ctx, sess)
}

func (e *Engine) scrape(ctx context.Context, sess fetcher.Session) error {
	categories, err := e.DiscoverCategories(ctx, sess, e.cfg.Site.StartURL)
	if err != nil {
		return fmt.Errorf("discover categories: %w", err)
	}

	// All book URLs are collected before any detail page is visited.
	var bookURLs []string
	for _, categoryURL := range categories {
		urls, err := e.ListBooks(ctx, sess, categoryURL, e.cfg.Site.MaxPages)
		if err != nil {
			return fmt.Errorf("list category %s: %w", categoryURL, err)
		}
		bookURLs = append(bookURLs, urls...)
	}
	e.logger.Info("book urls collected", "categories", len(categories), "books", len(bookURLs))

	var failures []error
	for _, bookURL := range bookURLs {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		book, err := e.ExtractBook(ctx, sess, bookURL)
		if err != nil {
			e.stats.BooksFailed.Add(1)
			e.metrics.IncFailed()
			if !e.cfg.Run.ContinueOnError || ctx.Err() != nil {
				return fmt.Errorf("extract %s: %w", bookURL, err)
			}
			e.logger.Warn("book skipped", "url", bookURL, "error", err)
			failures = append(failures, fmt.Errorf("extract %s: %w", bookURL, err))
			continue
		}

		if err := e.reporter.Report(book); err != nil {
			return fmt.Errorf("report %s: %w", bookURL, err)
		}
		e.stats.BooksReported.Add(1)
		e.metrics.ObserveBook(time.Since(start), book.Fallbacks())
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d books failed: %w", len(failures), len(bookURLs), errors.Join(failures...))
	}
	return nil
}

// waitLinks polls for links matching xpath until at least one appears or
// timeout elapses. The result is never nil.
func (e *Engine) waitLinks(ctx context.Context, sess fetcher.Session, xpath string, timeout time.Duration) ([]string, error) {
	links := []string{}
	_, err := fetcher.WaitFor(ctx, e.cfg.Wait.PollInterval, timeout, func(ctx context.Context) (bool, error) {
		found, err := sess.Links(ctx, xpath)
		if err != nil {
			return false, err
		}
		if found != nil {
			links = found
		}
		return len(found) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (e *Engine) navigate(ctx context.Context, sess fetcher.Session, stage, rawURL string) error {
	if e.progress != nil {
		e.progress.Step(stage, rawURL)
	}
	e.logger.Debug("navigating", "stage", stage, "url", rawURL)
	err := sess.Navigate(ctx, rawURL)
	e.metrics.ObserveNavigation(stage, err)
	return err
}
