package parser

import (
	"github.com/IshaanNene/bookscout/internal/types"
)

// Parser turns the markup of a detail page's content container into a Book.
type Parser interface {
	// Parse extracts a book from markup. sourceURL is recorded on the
	// book and in errors.
	Parse(markup, sourceURL string) (*types.Book, error)
}
