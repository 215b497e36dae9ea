package progress

import (
	"github.com/pterm/pterm"
)

// PtermSpinner wraps pterm's animated spinner for indeterminate-length
// phases where neither a total count nor the teacher's own braille Spinner
// animation is wanted — colored section framing (branch creation, pack
// loading) rather than a bare progress line.
type PtermSpinner struct {
	printer *pterm.SpinnerPrinter
}

// NewPtermSpinner starts a pterm spinner displaying text. Safe to call in
// non-interactive environments: pterm detects the absence of a terminal and
// falls back to static output on its own.
func NewPtermSpinner(text string) *PtermSpinner {
	printer, _ := pterm.DefaultSpinner.Start(text)
	return &PtermSpinner{printer: printer}
}

// Increment is a no-op: pterm's spinner has no notion of a unit count.
func (p *PtermSpinner) Increment() {}

// Finish stops the spinner, marking it successful.
func (p *PtermSpinner) Finish() {
	if p == nil || p.printer == nil {
		return
	}
	_ = p.printer.Stop()
}

// Section prints a colored section header, used by the CLI to frame a
// command's output (e.g. "Creating branch", "Committing changes") the way
// the original implementation's CLI groups related log lines.
func Section(title string) {
	pterm.DefaultSection.Println(title)
}
