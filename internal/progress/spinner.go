// Package progress provides terminal progress indicators for long-running
// store operations (commit, checkout), per §5's "report progress through
// an external progress-reporter interface". Adapted from the teacher's
// braille spinner, extended with a Reporter interface and a counted
// mpb-based bar for operations with a known total.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oxfs/oxen/internal/termcolor"
)

// Reporter is the minimal interface commitwriter and checkout depend on:
// one call per unit of work completed. Implementations must be safe to call
// even when no terminal is attached.
type Reporter interface {
	Increment()
	Finish()
}

// noop discards all progress reports; used in tests and wherever no
// progress display is wanted.
type noop struct{}

func (noop) Increment() {}
func (noop) Finish()    {}

// Noop returns a Reporter that does nothing.
func Noop() Reporter { return noop{} }

// Spinner displays an animated braille spinner on stderr while a long-running
// operation of unknown size is in progress. It is only displayed when
// stderr is a TTY; in non-interactive environments it is silent.
type Spinner struct {
	msg  string
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a Spinner that will display msg alongside the animation.
func NewSpinner(msg string) *Spinner {
	return &Spinner{
		msg:  msg,
		done: make(chan struct{}),
	}
}

// Start begins the spinner animation in a background goroutine, writing to
// stderr so it never pollutes stdout.
func (s *Spinner) Start() {
	if !termcolor.IsTerminal(os.Stderr.Fd()) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-s.done:
				fmt.Fprintf(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s %s", frames[i%len(frames)], s.msg)
				i++
			}
		}
	}()
}

// Stop halts the spinner animation and clears the line.
func (s *Spinner) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.wg.Wait()
}

// Increment and Finish satisfy Reporter for call sites that want to treat
// an indeterminate spinner interchangeably with a counted Bar.
func (s *Spinner) Increment() {}
func (s *Spinner) Finish()    { s.Stop() }
