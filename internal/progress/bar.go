package progress

import (
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar is a counted progress reporter for operations with a known total
// entry count (checkout reconciliation, commit's per-entry pass), the
// direct analogue of the original implementation's
// indicatif::ProgressBar::new(size).
type Bar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
}

// NewBar creates a Bar for a total of n units of work, labeled name. When
// stderr is not a terminal the bar renders nothing but still tracks state
// so Increment/Finish remain safe to call.
func NewBar(name string, n int) *Bar {
	if n <= 0 {
		n = 1
	}
	p := mpb.New(mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(n),
		mpb.PrependDecorators(decor.Name(name)),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
	return &Bar{progress: p, bar: bar}
}

// Increment advances the bar by one unit.
func (b *Bar) Increment() {
	if b == nil || b.bar == nil {
		return
	}
	b.bar.Increment()
}

// Finish waits for the bar to reach its total and its render goroutine to
// exit. It does not complete the bar itself, so it returns only once
// Increment has been called as many times as NewBar's n.
func (b *Bar) Finish() {
	if b == nil || b.progress == nil {
		return
	}
	b.progress.Wait()
}
