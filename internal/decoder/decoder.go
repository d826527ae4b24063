// Package decoder turns an eventlog buffer into its type dictionary and event
// stream.
//
// The format is two sections decoded in one left-to-right pass:
//
//	Eventlog   := Header Body
//	Header     := "hdrb" TypeRecord* "hdre"
//	TypeRecord := "etb\0" id:u16 size:i16 desc:u32-block extra:u32-block "ete\0"
//	Body       := "datb" EventRecord* 0xFFFF
//	EventRecord:= ty:u16 time:u64 payload
//
// All integers are big-endian. The payload of an event is framed by the size
// policy its type declared in the header, so the header is decoded and indexed
// into a Registry before the body is read.
package decoder

import (
	"fmt"

	elerrors "github.com/arkilian/eventlog/internal/errors"
	"github.com/arkilian/eventlog/pkg/types"
)

// Grammar selects the header layout.
type Grammar int

const (
	// GrammarFlat places type records directly between "hdrb" and "hdre".
	GrammarFlat Grammar = iota
	// GrammarNested wraps the type records in an extra "hetb"/"hete" pair
	// inside the header markers.
	GrammarNested
)

// String returns the configuration name of the grammar.
func (g Grammar) String() string {
	switch g {
	case GrammarFlat:
		return "flat"
	case GrammarNested:
		return "nested"
	default:
		return fmt.Sprintf("Grammar(%d)", int(g))
	}
}

// ParseGrammar parses a grammar name as produced by Grammar.String.
func ParseGrammar(s string) (Grammar, error) {
	switch s {
	case "", "flat":
		return GrammarFlat, nil
	case "nested":
		return GrammarNested, nil
	default:
		return GrammarFlat, fmt.Errorf("unknown grammar %q (must be flat or nested)", s)
	}
}

// Options controls decoding.
type Options struct {
	// Grammar selects the header layout
	Grammar Grammar

	// Strict rejects bytes left after the body terminator
	Strict bool
}

// Option mutates Options.
type Option func(*Options)

// WithGrammar selects the header layout.
func WithGrammar(g Grammar) Option {
	return func(o *Options) { o.Grammar = g }
}

// WithStrict makes trailing bytes after the body terminator an error.
func WithStrict() Option {
	return func(o *Options) { o.Strict = true }
}

// Log is a decoded eventlog.
type Log struct {
	// Types is the type dictionary in file order
	Types []types.EventType

	// Events is the event stream in file order
	Events []types.Event

	// HeaderSize is the number of bytes in the header section
	HeaderSize int

	// BodySize is the number of bytes in the body section
	BodySize int

	// Trailing is the number of bytes after the body terminator
	Trailing int
}

// Consumed returns the number of bytes decoded.
func (l *Log) Consumed() int {
	return l.HeaderSize + l.BodySize
}

// Registry returns the size registry derived from the dictionary.
func (l *Log) Registry() Registry {
	return BuildRegistry(l.Types)
}

// Decode decodes a complete eventlog held in buf. Bytes after the body
// terminator are ignored unless WithStrict is given.
func Decode(buf []byte, opts ...Option) (*Log, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	in := newInput(buf)

	eventTypes, in, err := decodeHeader(in, o.Grammar)
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	headerSize := in.pos

	reg := BuildRegistry(eventTypes)

	events, in, err := decodeBody(in, reg)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	if o.Strict && in.remaining() > 0 {
		err := in.fail(elerrors.CodeTrailingBytes,
			fmt.Sprintf("%d bytes after body terminator", in.remaining()))
		return nil, fmt.Errorf("decode: %w", err)
	}

	return &Log{
		Types:      eventTypes,
		Events:     events,
		HeaderSize: headerSize,
		BodySize:   in.pos - headerSize,
		Trailing:   in.remaining(),
	}, nil
}
