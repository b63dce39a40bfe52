package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake so assembled
// envelopes serialize identically run to run.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for assembly. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
