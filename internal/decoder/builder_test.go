package decoder

import (
	"encoding/binary"

	"github.com/arkilian/eventlog/pkg/types"
)

// logBuilder assembles eventlog buffers for tests.
type logBuilder struct {
	grammar Grammar
	buf     []byte
}

func newLogBuilder(g Grammar) *logBuilder {
	return &logBuilder{grammar: g}
}

func (b *logBuilder) raw(p ...byte) *logBuilder {
	b.buf = append(b.buf, p...)
	return b
}

func (b *logBuilder) u16(v uint16) *logBuilder {
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
	return b
}

func (b *logBuilder) u32(v uint32) *logBuilder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
	return b
}

func (b *logBuilder) u64(v uint64) *logBuilder {
	b.buf = binary.BigEndian.AppendUint64(b.buf, v)
	return b
}

func (b *logBuilder) headerBegin() *logBuilder {
	b.raw(headerBegin...)
	if b.grammar == GrammarNested {
		b.raw(typesBegin...)
	}
	return b
}

func (b *logBuilder) headerEnd() *logBuilder {
	if b.grammar == GrammarNested {
		b.raw(typesEnd...)
	}
	return b.raw(headerEnd...)
}

// typeRecord appends a dictionary entry with the raw on-disk size field.
func (b *logBuilder) typeRecord(id uint16, rawSize int16, desc, extra []byte) *logBuilder {
	b.raw(recordBegin...)
	b.u16(id)
	b.u16(uint16(rawSize))
	b.u32(uint32(len(desc))).raw(desc...)
	b.u32(uint32(len(extra))).raw(extra...)
	return b.raw(recordEnd...)
}

func (b *logBuilder) eventType(et types.EventType) *logBuilder {
	return b.typeRecord(uint16(et.ID), wireSize(et.Size), et.Description, et.ExtraInfo)
}

func (b *logBuilder) bodyBegin() *logBuilder {
	return b.raw(bodyBegin...)
}

func (b *logBuilder) bodyEnd() *logBuilder {
	return b.raw(bodyEnd...)
}

// event appends an event record framed by size.
func (b *logBuilder) event(ev types.Event, size types.EventSize) *logBuilder {
	b.u16(uint16(ev.Type))
	b.u64(ev.Time)
	if size.IsVariable() {
		b.u16(uint16(len(ev.Data)))
	}
	return b.raw(ev.Data...)
}

func (b *logBuilder) bytes() []byte {
	return b.buf
}

// encodeLog is the inverse of Decode for well-formed input.
func encodeLog(g Grammar, eventTypes []types.EventType, events []types.Event) []byte {
	b := newLogBuilder(g).headerBegin()
	for _, et := range eventTypes {
		b.eventType(et)
	}
	b.headerEnd().bodyBegin()
	reg := BuildRegistry(eventTypes)
	for _, ev := range events {
		b.event(ev, reg[ev.Type])
	}
	return b.bodyEnd().bytes()
}

func wireSize(s types.EventSize) int16 {
	if w, ok := s.Width(); ok {
		return int16(w)
	}
	return -1
}
