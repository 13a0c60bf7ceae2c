// Package clock provides an injectable time source so that cycle and
// reminder computations are testable. Production code wires System once at
// the application edge; tests pass a fixed clock.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed struct {
	t time.Time
}

// At builds a fixed clock pinned to t.
func At(t time.Time) Fixed { return Fixed{t} }

func (f Fixed) Now() time.Time { return f.t }
