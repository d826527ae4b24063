package decoder

import "github.com/arkilian/eventlog/pkg/types"

// Section and record delimiters.
var (
	headerBegin = []byte("hdrb")
	headerEnd   = []byte("hdre")
	typesBegin  = []byte("hetb")
	typesEnd    = []byte("hete")
	recordBegin = []byte("etb\x00")
	recordEnd   = []byte("ete\x00")
	bodyBegin   = []byte("datb")
	bodyEnd     = []byte{0xff, 0xff}
)

// decodeEventType decodes one dictionary entry:
// "etb\0" id:u16 size:i16 desc:u32-block extra:u32-block "ete\0".
func decodeEventType(in input) (types.EventType, input, error) {
	var et types.EventType

	in, err := in.tag(recordBegin)
	if err != nil {
		return et, in, err
	}

	id, in, err := in.u16("event type id")
	if err != nil {
		return et, in, err
	}

	rawSize, in, err := in.i16("event type size")
	if err != nil {
		return et, in, err
	}

	desc, in, err := in.block32("event type description")
	if err != nil {
		return et, in, err
	}

	extra, in, err := in.block32("event type extra info")
	if err != nil {
		return et, in, err
	}

	in, err = in.tag(recordEnd)
	if err != nil {
		return et, in, err
	}

	et = types.EventType{
		ID:          types.EventID(id),
		Size:        types.SizeFromWire(rawSize),
		Description: clone(desc),
		ExtraInfo:   clone(extra),
	}
	return et, in, nil
}

// decodeHeader decodes the type dictionary section. Records repeat while the
// next bytes carry the record-begin tag; once a record has started, any
// failure inside it aborts the whole header.
func decodeHeader(in input, grammar Grammar) ([]types.EventType, input, error) {
	in, err := in.tag(headerBegin)
	if err != nil {
		return nil, in, err
	}
	if grammar == GrammarNested {
		if in, err = in.tag(typesBegin); err != nil {
			return nil, in, err
		}
	}

	eventTypes := []types.EventType{}
	for in.hasPrefix(recordBegin) {
		var et types.EventType
		et, in, err = decodeEventType(in)
		if err != nil {
			return nil, in, err
		}
		eventTypes = append(eventTypes, et)
	}

	if grammar == GrammarNested {
		if in, err = in.tag(typesEnd); err != nil {
			return nil, in, err
		}
	}
	if in, err = in.tag(headerEnd); err != nil {
		return nil, in, err
	}
	return eventTypes, in, nil
}
