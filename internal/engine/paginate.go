package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"

	"github.com/IshaanNene/bookscout/internal/fetcher"
	"github.com/IshaanNene/bookscout/internal/types"
)

var indexSegment = regexp.MustCompile(`^index(\.[A-Za-z0-9]+)?$`)

// PageURL returns the URL of listing page n of a category. Page 1 is the
// category URL itself; later pages replace a final "index.<ext>" path
// segment with "page-<n>.<ext>". A URL without that segment returns
// types.ErrNotPaginated.
func PageURL(categoryURL string, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("page number must be >= 1, got %d", n)
	}
	if n == 1 {
		return categoryURL, nil
	}

	u, err := url.Parse(categoryURL)
	if err != nil {
		return "", fmt.Errorf("parse category url: %w", err)
	}
	dir, last := path.Split(u.Path)
	m := indexSegment.FindStringSubmatch(last)
	if m == nil {
		return "", fmt.Errorf("%w: %s", types.ErrNotPaginated, categoryURL)
	}
	u.Path = dir + fmt.Sprintf("page-%d", n) + m[1]
	u.RawPath = ""
	return u.String(), nil
}

// ListBooks walks up to maxPages listing pages of a category and returns
// the book links found, in page order. It stops at the first page with
// no thumbnail links.
func (e *Engine) ListBooks(ctx context.Context, sess fetcher.Session, categoryURL string, maxPages int) ([]string, error) {
	books := []string{}

	for n := 1; n <= maxPages; n++ {
		pageURL, err := PageURL(categoryURL, n)
		if errors.Is(err, types.ErrNotPaginated) {
			e.logger.Debug("category url cannot be paginated", "url", categoryURL)
			break
		}
		if err != nil {
			return nil, err
		}

		if err := e.navigate(ctx, sess, "listing", pageURL); err != nil {
			return nil, err
		}
		e.stats.ListingPages.Add(1)

		links, err := e.waitLinks(ctx, sess, e.cfg.Selectors.Thumbnail, e.cfg.Wait.ListingTimeout)
		if err != nil {
			return nil, err
		}
		if len(links) == 0 {
			e.logger.Debug("empty listing page, pagination stopped", "url", pageURL, "page", n)
			break
		}
		books = append(books, links...)
	}

	e.stats.BooksListed.Add(int64(len(books)))
	e.metrics.AddListed(len(books))
	e.logger.Info("category listed", "url", categoryURL, "books", len(books))
	return books, nil
}
