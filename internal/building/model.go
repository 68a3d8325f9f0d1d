package building

import "github.com/roach88/simtest/internal/devs"

// Model is the contract for pluggable building dynamics.
//
// Channels:
//   - event.Sample (in): report current temperatures immediately
//   - event.OnOffCmd (in): apply an actuation command
//   - event.TempData (out): temperature reports
//
// State returns an implementation-defined snapshot for diagnostics. The
// harness and network depend only on this interface.
type Model interface {
	devs.Atomic
	devs.Stateful
}
