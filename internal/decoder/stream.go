package decoder

import (
	"fmt"

	elerrors "github.com/arkilian/eventlog/internal/errors"
	"github.com/arkilian/eventlog/pkg/types"
)

// decodeEvent decodes one event record: ty:u16 time:u64 payload, where the
// payload framing comes from the registry entry for ty.
func decodeEvent(in input, reg Registry) (types.Event, input, error) {
	var ev types.Event
	start := in

	ty, in, err := in.u16("event type")
	if err != nil {
		return ev, start, err
	}

	size, ok := reg.Lookup(types.EventID(ty))
	if !ok {
		return ev, start, start.fail(elerrors.CodeUnknownEventType,
			fmt.Sprintf("event references undeclared type %d", ty))
	}

	ts, in, err := in.u64("event time")
	if err != nil {
		return ev, start, err
	}

	var data []byte
	if width, ok := size.Width(); ok {
		data, in, err = in.take(uint64(width), fmt.Sprintf("payload of type %d", ty))
	} else {
		data, in, err = in.block16(fmt.Sprintf("payload of type %d", ty))
	}
	if err != nil {
		return ev, start, err
	}

	ev = types.Event{
		Type: types.EventID(ty),
		Time: ts,
		Data: clone(data),
	}
	return ev, in, nil
}

// decodeBody decodes the event stream section. The body terminator 0xFFFF is
// reserved: it ends the stream wherever a record would begin. Any failure
// inside a record, including an undeclared type, aborts the stream.
func decodeBody(in input, reg Registry) ([]types.Event, input, error) {
	in, err := in.tag(bodyBegin)
	if err != nil {
		return nil, in, err
	}

	events := []types.Event{}
	for !in.hasPrefix(bodyEnd) {
		var ev types.Event
		ev, in, err = decodeEvent(in, reg)
		if err != nil {
			return nil, in, err
		}
		events = append(events, ev)
	}

	in, err = in.tag(bodyEnd)
	if err != nil {
		return nil, in, err
	}
	return events, in, nil
}
