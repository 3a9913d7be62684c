package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner reports the number of loaded titles on a terminal spinner.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner writing to w. It only animates when w is a terminal.
func NewSpinner(w io.Writer) *Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " scrolling sidebar"
	return &Spinner{s: s}
}

func (p *Spinner) Start() { p.s.Start() }

// Update replaces the spinner suffix with the current title count.
func (p *Spinner) Update(count int) {
	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" loaded %d titles", count)
	p.s.Unlock()
}

func (p *Spinner) Stop() { p.s.Stop() }
