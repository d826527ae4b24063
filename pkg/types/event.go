// Package types provides the decoded data model of an eventlog.
package types

import (
	"fmt"
	"time"
)

// EventID identifies an event type within a type dictionary.
type EventID uint16

// EventSize is the payload size policy of an event type. It is either a
// constant width or variable, in which case each payload carries its own
// 16-bit length prefix.
type EventSize struct {
	width    uint16
	variable bool
}

// ConstantSize returns a policy where every payload is exactly width bytes.
func ConstantSize(width uint16) EventSize {
	return EventSize{width: width}
}

// VariableSize returns a policy where every payload is length-prefixed.
func VariableSize() EventSize {
	return EventSize{variable: true}
}

// SizeFromWire maps the signed on-disk size field to a policy.
// Non-negative values are constant widths (zero included); negative values
// mark the type as variable.
func SizeFromWire(raw int16) EventSize {
	if raw >= 0 {
		return ConstantSize(uint16(raw))
	}
	return VariableSize()
}

// IsVariable reports whether payloads of this type are length-prefixed.
func (s EventSize) IsVariable() bool {
	return s.variable
}

// Width returns the constant payload width. ok is false for variable sizes.
func (s EventSize) Width() (width uint16, ok bool) {
	if s.variable {
		return 0, false
	}
	return s.width, true
}

// String returns "Constant(n)" or "Variable".
func (s EventSize) String() string {
	if s.variable {
		return "Variable"
	}
	return fmt.Sprintf("Constant(%d)", s.width)
}

// EventType describes one kind of event declared in the type dictionary.
type EventType struct {
	// ID is the identifier events use to reference this type
	ID EventID `json:"id"`

	// Size is the payload framing policy for events of this type
	Size EventSize `json:"-"`

	// Description is an opaque blob, usually UTF-8 text
	Description []byte `json:"description"`

	// ExtraInfo is an opaque blob and may be empty
	ExtraInfo []byte `json:"extra_info"`
}

// Event is one timestamped occurrence from the event stream.
type Event struct {
	// Type references an EventType.ID declared in the dictionary
	Type EventID `json:"type"`

	// Time is the timestamp in nanoseconds
	Time uint64 `json:"time"`

	// Data is the payload, framed according to the type's size policy
	Data []byte `json:"data"`
}

// Elapsed returns the event timestamp as a duration. Timestamps beyond the
// range of time.Duration saturate at its maximum.
func (e Event) Elapsed() time.Duration {
	const maxDuration = uint64(1<<63 - 1)
	if e.Time > maxDuration {
		return time.Duration(maxDuration)
	}
	return time.Duration(e.Time)
}
