package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrSessionClosed   = errors.New("session has been closed")
	ErrNotPaginated    = errors.New("url has no index segment to paginate")
	ErrUnknownDriver   = errors.New("unknown browser driver")
)

// NavigationError wraps errors that occur while loading a page.
type NavigationError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NavigationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("navigation error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("navigation error for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReportError wraps errors that occur while writing a report.
type ReportError struct {
	Reporter string
	Err      error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report error (%s): %v", e.Reporter, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }
