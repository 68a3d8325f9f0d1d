package building

import "github.com/roach88/simtest/internal/event"

type pendingEntry struct {
	pv        event.PortValue
	handedOff bool
}

// PendingQueue buffers events produced by equipment until the next output
// step.
//
// The queue owns an event from Push until CopyTo hands it to a caller.
// Clear releases whatever was never handed out, so every event is released
// exactly once whether or not it reached the network.
type PendingQueue struct {
	arena   *event.Arena
	entries []pendingEntry
}

// NewPendingQueue creates an empty queue allocating from arena.
func NewPendingQueue(arena *event.Arena) *PendingQueue {
	return &PendingQueue{
		arena:   arena,
		entries: make([]pendingEntry, 0, 8),
	}
}

// Push appends ev on ch. Insertion order is preserved.
func (q *PendingQueue) Push(ch event.Channel, ev event.Event) {
	q.entries = append(q.entries, pendingEntry{
		pv: event.PortValue{Channel: ch, Value: q.arena.New(ev)},
	})
}

// CopyTo appends every queued port value to out without clearing the
// queue. Ownership of the copied events passes to the caller.
func (q *PendingQueue) CopyTo(out *event.Bag) {
	for i := range q.entries {
		*out = append(*out, q.entries[i].pv)
		q.entries[i].handedOff = true
	}
}

// Clear empties the queue, releasing events that were never copied out.
func (q *PendingQueue) Clear() {
	for i := range q.entries {
		if !q.entries[i].handedOff {
			q.arena.Release(q.entries[i].pv.Value)
		}
		// Drop the pointer so the backing array does not pin released events.
		q.entries[i] = pendingEntry{}
	}
	q.entries = q.entries[:0]
}

// Len returns the number of queued events.
func (q *PendingQueue) Len() int {
	return len(q.entries)
}

// Empty reports whether the queue holds no events. O(1).
func (q *PendingQueue) Empty() bool {
	return len(q.entries) == 0
}
