package observability

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows the current pipeline step on a terminal.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner drawing to w. Nothing is drawn until the
// first Step.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{
		s: spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w)),
	}
}

// Step updates the spinner text to the stage and URL being processed.
func (p *Spinner) Step(stage, url string) {
	p.s.Lock()
	p.s.Suffix = " " + stage + " " + url
	p.s.Unlock()
	if !p.s.Active() {
		p.s.Start()
	}
}

// Done stops the spinner and clears its line.
func (p *Spinner) Done() {
	p.s.Stop()
}
