package render

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/arkilian/eventlog/internal/decoder"
)

// inlineHexLimit is the largest payload printed as a single hex line.
const inlineHexLimit = 32

const fieldIndent = "        "

// TextRenderer renders the listing format.
type TextRenderer struct {
	opts Options
}

// Render writes the type dictionary and event stream.
func (r *TextRenderer) Render(w io.Writer, log *decoder.Log) error {
	bw := bufio.NewWriter(w)

	if !r.opts.SkipTypes {
		fmt.Fprintln(bw, "Types:")
		for i, et := range log.Types {
			fmt.Fprintf(bw, "  %4d: id:    %d\n", i, et.ID)
			fmt.Fprintf(bw, "%ssize:  %s\n", fieldIndent, et.Size)
			fmt.Fprintf(bw, "%sdesc:  %s\n", fieldIndent, Text(et.Description))
			if len(et.ExtraInfo) > 0 {
				fmt.Fprintf(bw, "%sextra: %s\n", fieldIndent, Text(et.ExtraInfo))
			}
		}
	}

	if !r.opts.SkipEvents {
		descs := Descriptions(log.Types)
		fmt.Fprintln(bw, "Events:")
		for i, ev := range log.Events {
			fmt.Fprintf(bw, "  %4d: id:    %d (%s)\n", i, ev.Type, descs[ev.Type])
			fmt.Fprintf(bw, "%stime:  %s\n", fieldIndent, ev.Elapsed())
			if len(ev.Data) == 0 {
				continue
			}
			fmt.Fprintf(bw, "%sdata:  %d bytes\n", fieldIndent, len(ev.Data))
			writePayload(bw, ev.Data)
		}
	}

	return bw.Flush()
}

// writePayload prints text payloads verbatim and everything else as hex.
func writePayload(w io.Writer, data []byte) {
	if s, ok := PayloadText(data); ok {
		fmt.Fprintf(w, "%sdata:  %s\n", fieldIndent, s)
		return
	}
	if len(data) <= inlineHexLimit {
		fmt.Fprintf(w, "%sdata:  % x\n", fieldIndent, data)
		return
	}
	dump := strings.TrimRight(hex.Dump(data), "\n")
	for _, line := range strings.Split(dump, "\n") {
		fmt.Fprintf(w, "%s  %s\n", fieldIndent, line)
	}
}
