package engine

import (
	"context"
	"errors"

	"github.com/IshaanNene/bookscout/internal/fetcher"
	"github.com/IshaanNene/bookscout/internal/types"
)

// ExtractBook loads a detail page, waits for its content container and
// parses the container's markup.
func (e *Engine) ExtractBook(ctx context.Context, sess fetcher.Session, bookURL string) (*types.Book, error) {
	if err := e.navigate(ctx, sess, "detail", bookURL); err != nil {
		return nil, err
	}

	var markup string
	found, err := fetcher.WaitFor(ctx, e.cfg.Wait.PollInterval, e.cfg.Wait.DetailTimeout, func(ctx context.Context) (bool, error) {
		m, err := sess.InnerHTML(ctx, e.cfg.Selectors.Content)
		if errors.Is(err, types.ErrElementNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		markup = m
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &types.ParseError{URL: bookURL, Selector: e.cfg.Selectors.Content, Err: types.ErrElementNotFound}
	}

	book, err := e.parser.Parse(markup, bookURL)
	if err != nil {
		return nil, err
	}

	if fb := book.Fallbacks(); len(fb) > 0 {
		e.stats.FieldFallbacks.Add(int64(len(fb)))
		e.logger.Info("placeholders used", "url", bookURL, "fields", fb)
	}
	return book, nil
}
