package event

// PortValue is an event travelling on a channel.
type PortValue struct {
	Channel Channel
	Value   *Event
}

// Bag is an ordered collection of port values delivered in one instant.
// Order is insertion order; the kernel never reorders a bag.
type Bag []PortValue

// On returns the port values in b that travel on ch, preserving order.
func (b Bag) On(ch Channel) Bag {
	var out Bag
	for _, pv := range b {
		if pv.Channel == ch {
			out = append(out, pv)
		}
	}
	return out
}

// Events returns the event values in b, preserving order.
func (b Bag) Events() []Event {
	out := make([]Event, 0, len(b))
	for _, pv := range b {
		if pv.Value != nil {
			out = append(out, *pv.Value)
		}
	}
	return out
}
