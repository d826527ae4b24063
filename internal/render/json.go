package render

import (
	"encoding/json"
	"io"

	"github.com/arkilian/eventlog/internal/decoder"
	"github.com/arkilian/eventlog/pkg/types"
)

// JSONRenderer renders one JSON document per log.
type JSONRenderer struct {
	opts Options
}

type jsonDocument struct {
	Types  []jsonType  `json:"types,omitempty"`
	Events []jsonEvent `json:"events,omitempty"`
}

type jsonType struct {
	ID          types.EventID `json:"id"`
	Size        string        `json:"size"`
	Width       *uint16       `json:"width,omitempty"`
	Description string        `json:"description"`
	ExtraInfo   string        `json:"extra_info,omitempty"`
}

type jsonEvent struct {
	Type        types.EventID `json:"type"`
	Description string        `json:"description"`
	TimeNanos   uint64        `json:"time_ns"`
	Time        string        `json:"time"`
	Data        []byte        `json:"data"`
	Text        *string       `json:"text,omitempty"`
}

// Render writes the log as JSON. Payloads are base64 encoded; text payloads
// are repeated in the "text" field.
func (r *JSONRenderer) Render(w io.Writer, log *decoder.Log) error {
	doc := jsonDocument{}

	if !r.opts.SkipTypes {
		doc.Types = make([]jsonType, 0, len(log.Types))
		for _, et := range log.Types {
			jt := jsonType{
				ID:          et.ID,
				Size:        et.Size.String(),
				Description: Text(et.Description),
				ExtraInfo:   Text(et.ExtraInfo),
			}
			if width, ok := et.Size.Width(); ok {
				jt.Width = &width
			}
			doc.Types = append(doc.Types, jt)
		}
	}

	if !r.opts.SkipEvents {
		descs := Descriptions(log.Types)
		doc.Events = make([]jsonEvent, 0, len(log.Events))
		for _, ev := range log.Events {
			je := jsonEvent{
				Type:        ev.Type,
				Description: descs[ev.Type],
				TimeNanos:   ev.Time,
				Time:        ev.Elapsed().String(),
				Data:        ev.Data,
			}
			if s, ok := PayloadText(ev.Data); ok {
				je.Text = &s
			}
			doc.Events = append(doc.Events, je)
		}
	}

	enc := json.NewEncoder(w)
	if r.opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
