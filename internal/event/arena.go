package event

// Arena allocates emitted events and enforces exactly-once release.
//
// The Go runtime would reclaim an unreachable event on its own; the arena
// exists to make the ownership handoff explicit and checkable. Every event
// an emitter hands to the kernel is allocated here, and the emitter calls
// Release once the kernel confirms delivery. Live() is the leak detector.
//
// Thread-safety: none. The simulation is single-threaded and every arena
// call happens on the kernel's goroutine.
type Arena struct {
	live     map[*Event]struct{}
	allocs   uint64
	releases uint64
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{live: make(map[*Event]struct{})}
}

// New allocates a copy of ev owned by the caller.
func (a *Arena) New(ev Event) *Event {
	p := &ev
	a.live[p] = struct{}{}
	a.allocs++
	return p
}

// Release ends the lifetime of ev.
//
// Panics with a LifetimeViolation if ev is nil, was not allocated by this
// arena, or has already been released.
func (a *Arena) Release(ev *Event) {
	if ev == nil {
		panic(&LifetimeViolation{Code: ErrCodeNilRelease, Message: "release of nil event"})
	}
	if _, ok := a.live[ev]; !ok {
		panic(&LifetimeViolation{
			Code:    ErrCodeDoubleRelease,
			Message: "event released twice or not owned by this arena",
			Event:   ev.String(),
		})
	}
	delete(a.live, ev)
	a.releases++
}

// ReleaseBag releases every event in b, in order.
func (a *Arena) ReleaseBag(b Bag) {
	for _, pv := range b {
		a.Release(pv.Value)
	}
}

// Owns reports whether ev is currently live in this arena.
func (a *Arena) Owns(ev *Event) bool {
	_, ok := a.live[ev]
	return ok
}

// Live returns the number of allocated events not yet released.
func (a *Arena) Live() int {
	return len(a.live)
}

// Stats returns lifetime allocation and release counts.
func (a *Arena) Stats() (allocs, releases uint64) {
	return a.allocs, a.releases
}
