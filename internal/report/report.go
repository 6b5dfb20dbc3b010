package report

import (
	"github.com/IshaanNene/bookscout/internal/types"
)

// Reporter is the interface for all book output sinks.
type Reporter interface {
	// Report emits one book. Books arrive in extraction order.
	Report(book *types.Book) error

	// Name returns the reporter identifier.
	Name() string
}
