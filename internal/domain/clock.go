package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze "now" defaults,
// window checks, and season lookups via SetClock. Production uses real time.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the package time source. Exposed so sibling packages
// (adapters, estimators) share one injectable clock.
func Clock() clockwork.Clock {
	return clock
}
