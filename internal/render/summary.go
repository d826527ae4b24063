package render

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/arkilian/eventlog/internal/observability"
)

// WriteSummary writes a one-line overview of a decoded capture followed by
// the busiest event types when top > 0.
func WriteSummary(w io.Writer, name string, inputSize int, stats *observability.DecodeStats, top int) error {
	span := time.Duration(0)
	if stats.EventCount > 0 {
		span = time.Duration(stats.LastTime - stats.FirstTime)
	}

	_, err := fmt.Fprintf(w, "%s: %s, %s types, %s events spanning %s (header %s, body %s, trailing %s)\n",
		name,
		humanize.Bytes(uint64(inputSize)),
		humanize.Comma(int64(stats.TypeCount)),
		humanize.Comma(int64(stats.EventCount)),
		span,
		humanize.Bytes(uint64(stats.HeaderBytes)),
		humanize.Bytes(uint64(stats.BodyBytes)),
		humanize.Bytes(uint64(stats.TrailingBytes)),
	)
	if err != nil {
		return err
	}

	for _, ts := range stats.TopTypes(top) {
		if _, err := fmt.Fprintf(w, "  %5d %-24s %s events, %s payload\n",
			ts.ID,
			fmt.Sprintf("(%s)", ts.Description),
			humanize.Comma(ts.Count),
			humanize.Bytes(uint64(ts.PayloadBytes)),
		); err != nil {
			return err
		}
	}
	return nil
}
