package progress

import "testing"

func TestNoopIsSafeToCall(t *testing.T) {
	r := Noop()
	r.Increment()
	r.Increment()
	r.Finish()
}

func TestSpinnerStartStopWithoutTTY(t *testing.T) {
	s := NewSpinner("loading")
	s.Start()
	s.Stop()
}

func TestBarIncrementAndFinish(t *testing.T) {
	b := NewBar("committing", 3)
	b.Increment()
	b.Increment()
	b.Increment()
	b.Finish()
}

func TestNilBarIsSafe(t *testing.T) {
	var b *Bar
	b.Increment()
	b.Finish()
}
