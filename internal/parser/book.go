package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/bookscout/internal/types"
)

// Selectors for the fields of a product page.
const (
	NameSelector        = "h1"
	PriceSelector       = "p.price_color"
	DescriptionSelector = "div#product_description"
	AttributesSelector  = "table"
)

var starRatingClass = regexp.MustCompile(`^star-rating`)

// BookParser extracts book fields with goquery.
type BookParser struct {
	logger *slog.Logger
}

// NewBookParser creates a new book parser.
func NewBookParser(logger *slog.Logger) *BookParser {
	return &BookParser{
		logger: logger.With("component", "book_parser"),
	}
}

// Parse implements Parser.
//
// Name, price and star rating fall back to placeholders when absent. The
// description anchor and the attribute table are required: a page
// without them yields a ParseError wrapping types.ErrElementNotFound.
func (p *BookParser) Parse(markup, sourceURL string) (*types.Book, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &types.ParseError{URL: sourceURL, Err: fmt.Errorf("parse markup: %w", err)}
	}

	book := types.NewBook(sourceURL)

	if h1 := doc.Find(NameSelector).First(); h1.Length() > 0 {
		book.Name = h1.Text()
	}
	if price := doc.Find(PriceSelector).First(); price.Length() > 0 {
		book.Price = price.Text()
	}
	if rating, ok := starRating(doc); ok {
		book.StarRating = rating
	}

	anchor := doc.Find(DescriptionSelector).First()
	if anchor.Length() == 0 {
		return nil, &types.ParseError{URL: sourceURL, Selector: DescriptionSelector, Err: types.ErrElementNotFound}
	}
	if desc := anchor.Next(); desc.Length() > 0 {
		book.Description = desc.Text()
	}

	table := doc.Find(AttributesSelector).First()
	if table.Length() == 0 {
		return nil, &types.ParseError{URL: sourceURL, Selector: AttributesSelector, Err: types.ErrElementNotFound}
	}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			p.logger.Debug("skipping incomplete attribute row", "url", sourceURL)
			return
		}
		book.Attributes.Set(th.Text(), td.Text())
	})

	if fb := book.Fallbacks(); len(fb) > 0 {
		p.logger.Debug("fields missing, placeholders used", "url", sourceURL, "fields", fb)
	}

	return book, nil
}

// starRating returns the last class token of the first <p> carrying a
// class that starts with "star-rating", e.g. "Three" for
// <p class="star-rating Three">.
func starRating(doc *goquery.Document) (string, bool) {
	var rating string
	found := false
	doc.Find("p[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		tokens := strings.Fields(class)
		for _, tok := range tokens {
			if starRatingClass.MatchString(tok) {
				rating = tokens[len(tokens)-1]
				found = true
				return false
			}
		}
		return true
	})
	return rating, found
}
