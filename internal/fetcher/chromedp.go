package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/IshaanNene/bookscout/internal/config"
	"github.com/IshaanNene/bookscout/internal/types"
)

const linksJS = `(() => {
	const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < r.snapshotLength; i++) {
		const n = r.snapshotItem(i);
		if (n.href) out.push(String(n.href));
	}
	return out;
})()`

const innerHTMLJS = `(() => {
	const n = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	return n ? { found: true, html: n.innerHTML } : { found: false, html: "" };
})()`

// ChromedpSession implements Session on top of chromedp. XPath queries
// run in the page through document.evaluate.
type ChromedpSession struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	cfg           *config.BrowserConfig
	logger        *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewChromedpSession starts Chrome through an exec allocator.
// The browser outlives ctx; it is released by Close.
func NewChromedpSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ChromedpSession, error) {
	bc := &cfg.Browser
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", bc.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if bc.Maximized && !bc.Headless {
		opts = append(opts, chromedp.Flag("start-maximized", true))
	} else if w, h, ok := parseWindowSize(bc.WindowSize); ok {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	if bc.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(bc.Proxy))
	}
	if bc.Bin != "" {
		opts = append(opts, chromedp.ExecPath(bc.Bin))
	}
	if bc.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(bc.UserAgent))
	}

	cs := &ChromedpSession{
		cfg:    bc,
		logger: logger.With("component", "chromedp_session"),
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cs.allocCancel = allocCancel
	cs.browserCtx = browserCtx
	cs.browserCancel = browserCancel

	var actions []chromedp.Action
	if bc.Stealth {
		script := DefaultStealthConfig().StealthJS()
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}))
	}

	// The first Run starts the browser process.
	if err := ctx.Err(); err != nil {
		cs.release()
		return nil, err
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		cs.release()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	cs.logger.Info("browser session ready",
		"headless", bc.Headless,
		"maximized", bc.Maximized,
		"stealth", bc.Stealth,
	)

	return cs, nil
}

// Navigate loads rawURL and waits for the load event.
func (cs *ChromedpSession) Navigate(ctx context.Context, rawURL string) error {
	runCtx, cancel, err := cs.runContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(rawURL)); err != nil {
		return &types.NavigationError{URL: rawURL, Err: err}
	}
	cs.logger.Debug("navigated", "url", rawURL)
	return nil
}

// Links implements Session.
func (cs *ChromedpSession) Links(ctx context.Context, xpath string) ([]string, error) {
	runCtx, cancel, err := cs.runContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var hrefs []string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(linksJS, jsString(xpath)), &hrefs)); err != nil {
		return nil, fmt.Errorf("xpath %q: %w", xpath, err)
	}
	if hrefs == nil {
		hrefs = []string{}
	}
	return hrefs, nil
}

// InnerHTML implements Session.
func (cs *ChromedpSession) InnerHTML(ctx context.Context, xpath string) (string, error) {
	runCtx, cancel, err := cs.runContext(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var res struct {
		Found bool   `json:"found"`
		HTML  string `json:"html"`
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(innerHTMLJS, jsString(xpath)), &res)); err != nil {
		return "", fmt.Errorf("xpath %q: %w", xpath, err)
	}
	if !res.Found {
		return "", types.ErrElementNotFound
	}
	return res.HTML, nil
}

// Driver implements Session.
func (cs *ChromedpSession) Driver() string { return "chromedp" }

// Close shuts the browser down gracefully and frees the allocator.
func (cs *ChromedpSession) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil
	}
	cs.closed = true

	err := chromedp.Cancel(cs.browserCtx)
	cs.release()
	cs.logger.Debug("browser session closed")
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func (cs *ChromedpSession) release() {
	cs.browserCancel()
	cs.allocCancel()
}

// runContext derives a per-call context from the browser context that
// also ends when the caller's ctx does.
func (cs *ChromedpSession) runContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return nil, nil, types.ErrSessionClosed
	}

	runCtx, cancel := context.WithTimeout(cs.browserCtx, cs.cfg.RequestTimeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}, nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// parseWindowSize parses "width,height".
func parseWindowSize(s string) (int, int, bool) {
	w, h, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, false
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, false
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, false
	}
	return width, height, true
}
