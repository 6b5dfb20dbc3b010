package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/types"
)

// RodSession implements Session by driving Chromium through Rod.
type RodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      *config.BrowserConfig
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewRodSession launches a browser and opens the single page the session drives.
func NewRodSession(cfg *config.Config, logger *slog.Logger) (*RodSession, error) {
	rs := &RodSession{
		cfg:    &cfg.Browser,
		logger: logger.With("component", "rod_session"),
	}

	rs.launcher = rs.newLauncher()
	launchURL, err := rs.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	// Without a default device the page follows the real window size,
	// which is what makes the maximized window take effect.
	browser := rod.New().ControlURL(launchURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		rs.launcher.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	rs.browser = browser

	var page *rod.Page
	if rs.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		rs.launcher.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}
	rs.page = page

	if rs.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: rs.cfg.UserAgent})
		if err != nil {
			rs.logger.Warn("failed to set user agent", "error", err)
		}
	}

	rs.logger.Info("browser session ready",
		"headless", rs.cfg.Headless,
		"maximized", rs.cfg.Maximized,
		"stealth", rs.cfg.Stealth,
	)

	return rs, nil
}

// newLauncher builds the Chromium command line.
func (rs *RodSession) newLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(rs.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	// Headless windows cannot be maximized; give them an explicit size.
	if rs.cfg.Maximized && !rs.cfg.Headless {
		l = l.Set("start-maximized")
	} else if rs.cfg.WindowSize != "" {
		l = l.Set("window-size", rs.cfg.WindowSize)
	}

	if rs.cfg.Proxy != "" {
		l = l.Proxy(rs.cfg.Proxy)
	}
	if rs.cfg.Bin != "" {
		l = l.Bin(rs.cfg.Bin)
	}
	return l
}

// Navigate loads rawURL and waits for the load event.
func (rs *RodSession) Navigate(ctx context.Context, rawURL string) error {
	page, err := rs.current(ctx)
	if err != nil {
		return err
	}
	page = page.Timeout(rs.cfg.RequestTimeout)
	defer page.CancelTimeout()

	if err := page.Navigate(rawURL); err != nil {
		return &types.NavigationError{URL: rawURL, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return &types.NavigationError{URL: rawURL, Err: fmt.Errorf("wait load: %w", err)}
	}

	rs.logger.Debug("navigated", "url", rawURL)
	return nil
}

// Links implements Session. The href property is already absolute.
func (rs *RodSession) Links(ctx context.Context, xpath string) ([]string, error) {
	page, err := rs.current(ctx)
	if err != nil {
		return nil, err
	}

	// ElementsX does not wait; callers poll through WaitFor.
	els, err := page.ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", xpath, err)
	}

	hrefs := make([]string, 0, len(els))
	for _, el := range els {
		prop, err := el.Property("href")
		if err != nil {
			return nil, fmt.Errorf("read href: %w", err)
		}
		if href := prop.Str(); href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

// InnerHTML implements Session.
func (rs *RodSession) InnerHTML(ctx context.Context, xpath string) (string, error) {
	page, err := rs.current(ctx)
	if err != nil {
		return "", err
	}

	els, err := page.ElementsX(xpath)
	if err != nil {
		return "", fmt.Errorf("xpath %q: %w", xpath, err)
	}
	if len(els) == 0 {
		return "", types.ErrElementNotFound
	}

	prop, err := els[0].Property("innerHTML")
	if err != nil {
		return "", fmt.Errorf("read innerHTML: %w", err)
	}
	return prop.Str(), nil
}

// Driver implements Session.
func (rs *RodSession) Driver() string { return "rod" }

// Close shuts down the browser and removes its profile directory.
func (rs *RodSession) Close() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.closed {
		return nil
	}
	rs.closed = true

	var errs []error
	if rs.page != nil {
		if err := rs.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if rs.browser != nil {
		if err := rs.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if rs.launcher != nil {
		rs.launcher.Cleanup()
	}

	rs.logger.Debug("browser session closed")
	return errors.Join(errs...)
}

func (rs *RodSession) current(ctx context.Context) (*rod.Page, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.closed {
		return nil, types.ErrSessionClosed
	}
	return rs.page.Context(ctx), nil
}
