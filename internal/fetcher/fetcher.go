package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/types"
)

// Session is one open automation session. It holds a single current page:
// every Navigate replaces it, and queries run against whatever is loaded.
type Session interface {
	// Navigate loads url as the current page.
	Navigate(ctx context.Context, url string) error

	// Links returns the resolved href of every element matching xpath on
	// the current page, in document order. Elements without an href are
	// skipped. No match yields an empty slice.
	Links(ctx context.Context, xpath string) ([]string, error)

	// InnerHTML returns the inner markup of the first element matching
	// xpath, or types.ErrElementNotFound.
	InnerHTML(ctx context.Context, xpath string) (string, error)

	// Driver returns the driver identifier.
	Driver() string

	// Close releases the session. It is safe to call more than once.
	Close() error
}

// Open starts a session using the driver named in cfg.Browser.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Session, error) {
	switch cfg.Browser.Driver {
	case "rod":
		return NewRodSession(cfg, logger)
	case "chromedp":
		return NewChromedpSession(ctx, cfg, logger)
	case "http":
		return NewHTTPSession(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownDriver, cfg.Browser.Driver)
	}
}
