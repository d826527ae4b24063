package decoder

import "github.com/arkilian/eventlog/pkg/types"

// Registry maps event type ids to their payload size policy. It is derived
// from a decoded dictionary and consulted while framing event payloads.
type Registry map[types.EventID]types.EventSize

// BuildRegistry indexes the size policy of every dictionary entry.
// When an id is declared more than once, the later declaration wins.
func BuildRegistry(eventTypes []types.EventType) Registry {
	reg := make(Registry, len(eventTypes))
	for _, et := range eventTypes {
		reg[et.ID] = et.Size
	}
	return reg
}

// Lookup returns the size policy registered for id.
func (r Registry) Lookup(id types.EventID) (types.EventSize, bool) {
	size, ok := r[id]
	return size, ok
}
