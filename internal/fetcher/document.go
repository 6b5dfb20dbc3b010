package fetcher

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/bookscout/internal/types"
)

// document is a parsed page queried with XPath. It backs the sessions
// that load markup without a browser.
type document struct {
	root *html.Node
	base *url.URL
}

func parseDocument(markup string, base *url.URL) (*document, error) {
	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &document{root: root, base: base}, nil
}

// links mirrors a browser's href property: relative references are
// resolved against the page URL.
func (d *document) links(xpath string) ([]string, error) {
	nodes, err := htmlquery.QueryAll(d.root, xpath)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", xpath, err)
	}

	hrefs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		href := strings.TrimSpace(htmlquery.SelectAttr(n, "href"))
		if href == "" {
			continue
		}
		hrefs = append(hrefs, d.resolve(href))
	}
	return hrefs, nil
}

func (d *document) innerHTML(xpath string) (string, error) {
	n, err := htmlquery.Query(d.root, xpath)
	if err != nil {
		return "", fmt.Errorf("xpath %q: %w", xpath, err)
	}
	if n == nil {
		return "", types.ErrElementNotFound
	}
	return htmlquery.OutputHTML(n, false), nil
}

func (d *document) resolve(href string) string {
	if d.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return d.base.ResolveReference(ref).String()
}
