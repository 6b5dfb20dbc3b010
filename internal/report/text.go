package report

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/IshaanNene/bookscout/internal/types"
)

// Field labels of the console report.
const (
	LabelName        = "Kitap Adı: "
	LabelPrice       = "Fiyat: "
	LabelStarRating  = "Yıldız Sayısı: "
	LabelDescription = "Açıklama: "
	LabelAttributes  = "Ürün Bilgileri:"
)

var separator = "\n" + strings.Repeat("=", 50) + "\n"

// TextReporter writes each book as a labelled block followed by a
// separator line.
type TextReporter struct {
	w      io.Writer
	mu     sync.Mutex
	logger *slog.Logger
}

// NewTextReporter creates a reporter writing to w.
func NewTextReporter(w io.Writer, logger *slog.Logger) *TextReporter {
	return &TextReporter{
		w:      w,
		logger: logger.With("component", "text_reporter"),
	}
}

func (r *TextReporter) Name() string { return "text" }

// Report writes the block for book in one write so blocks never interleave.
func (r *TextReporter) Report(book *types.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	writeBlock(&sb, book)

	if _, err := io.WriteString(r.w, sb.String()); err != nil {
		return &types.ReportError{Reporter: r.Name(), Err: err}
	}
	r.logger.Debug("book reported", "url", book.URL, "attributes", book.Attributes.Len())
	return nil
}

func writeBlock(w *strings.Builder, book *types.Book) {
	w.WriteString(LabelName + book.Name + "\n")
	w.WriteString(LabelPrice + book.Price + "\n")
	w.WriteString(LabelStarRating + book.StarRating + "\n")
	w.WriteString(LabelDescription + book.Description + "\n")
	w.WriteString(LabelAttributes + "\n")
	book.Attributes.Each(func(key, value string) {
		w.WriteString("  " + key + ": " + value + "\n")
	})
	w.WriteString(separator + "\n")
}
