// Package render formats decoded eventlogs for human inspection.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arkilian/eventlog/internal/decoder"
	"github.com/arkilian/eventlog/pkg/types"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Renderer writes a decoded log to w.
type Renderer interface {
	Render(w io.Writer, log *decoder.Log) error
}

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	switch format {
	case FormatText, "":
		return &TextRenderer{opts: opts}, nil
	case FormatJSON:
		return &JSONRenderer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text or json)", format)
	}
}

// Options selects the sections to render.
type Options struct {
	// SkipTypes omits the type dictionary
	SkipTypes bool
	// SkipEvents omits the event stream
	SkipEvents bool
	// Indent pretty-prints JSON output
	Indent bool
}

// Text returns b as text, replacing invalid UTF-8 sequences.
func Text(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// PayloadText returns the payload as text when it is valid UTF-8 made of
// printable runes and line whitespace, with at least one non-space character.
func PayloadText(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	s := string(data)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	for _, r := range s {
		switch r {
		case '\t', '\n', '\r':
			continue
		}
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return s, true
}

// Descriptions maps each type id to its description text. Later dictionary
// entries win, matching the size registry.
func Descriptions(eventTypes []types.EventType) map[types.EventID]string {
	m := make(map[types.EventID]string, len(eventTypes))
	for _, et := range eventTypes {
		m[et.ID] = Text(et.Description)
	}
	return m
}
