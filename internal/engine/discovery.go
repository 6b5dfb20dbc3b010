package engine

import (
	"context"
	"strings"

	"github.com/IshaanNene/bookscout/internal/fetcher"
)

// CategoryXPath matches links whose text contains any of filters, e.g.
// //a[contains(text(),'Travel') or contains(text(),'Nonfiction')].
func CategoryXPath(filters []string) string {
	conds := make([]string, len(filters))
	for i, f := range filters {
		conds[i] = "contains(text()," + xpathLiteral(f) + ")"
	}
	return "//a[" + strings.Join(conds, " or ") + "]"
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

// DiscoverCategories loads startURL and returns the href of every link
// whose text contains one of the configured category filters, in document
// order with duplicates kept. No match is not an error.
func (e *Engine) DiscoverCategories(ctx context.Context, sess fetcher.Session, startURL string) ([]string, error) {
	if err := e.navigate(ctx, sess, "category", startURL); err != nil {
		return nil, err
	}

	categories, err := e.waitLinks(ctx, sess, CategoryXPath(e.cfg.Site.CategoryFilters), e.cfg.Wait.CategoryTimeout)
	if err != nil {
		return nil, err
	}

	e.stats.Categories.Add(int64(len(categories)))
	if len(categories) == 0 {
		e.logger.Warn("no category links matched", "url", startURL, "filters", e.cfg.Site.CategoryFilters)
	} else {
		e.logger.Info("categories discovered", "count", len(categories))
	}
	return categories, nil
}
