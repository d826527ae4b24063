// Package observability provides summary statistics over decoded eventlogs.
package observability

import (
	"sort"

	"github.com/arkilian/eventlog/internal/decoder"
	"github.com/arkilian/eventlog/pkg/types"
)

// DecodeStats summarizes one decoded eventlog.
type DecodeStats struct {
	HeaderBytes   int
	BodyBytes     int
	TrailingBytes int
	TypeCount     int
	EventCount    int
	PayloadBytes  int64
	FirstTime     uint64
	LastTime      uint64

	perType map[types.EventID]*TypeStats
}

// TypeStats holds statistics for a single event type.
type TypeStats struct {
	ID           types.EventID
	Description  string
	Size         types.EventSize
	Count        int64
	PayloadBytes int64
	FirstTime    uint64
	LastTime     uint64
}

// Collect computes statistics for a decoded log.
func Collect(log *decoder.Log) *DecodeStats {
	s := &DecodeStats{
		HeaderBytes:   log.HeaderSize,
		BodyBytes:     log.BodySize,
		TrailingBytes: log.Trailing,
		TypeCount:     len(log.Types),
		EventCount:    len(log.Events),
		perType:       make(map[types.EventID]*TypeStats, len(log.Types)),
	}

	for _, et := range log.Types {
		s.perType[et.ID] = &TypeStats{
			ID:          et.ID,
			Description: string(et.Description),
			Size:        et.Size,
		}
	}

	for i, ev := range log.Events {
		if i == 0 || ev.Time < s.FirstTime {
			s.FirstTime = ev.Time
		}
		if i == 0 || ev.Time > s.LastTime {
			s.LastTime = ev.Time
		}
		s.PayloadBytes += int64(len(ev.Data))

		ts, ok := s.perType[ev.Type]
		if !ok {
			ts = &TypeStats{ID: ev.Type}
			s.perType[ev.Type] = ts
		}
		if ts.Count == 0 || ev.Time < ts.FirstTime {
			ts.FirstTime = ev.Time
		}
		if ts.Count == 0 || ev.Time > ts.LastTime {
			ts.LastTime = ev.Time
		}
		ts.Count++
		ts.PayloadBytes += int64(len(ev.Data))
	}

	return s
}

// Type returns the statistics for one type id.
func (s *DecodeStats) Type(id types.EventID) (TypeStats, bool) {
	ts, ok := s.perType[id]
	if !ok {
		return TypeStats{}, false
	}
	return *ts, true
}

// TopTypes returns the top N event types by event count.
// Ties are broken by ascending type id so the order is stable.
func (s *DecodeStats) TopTypes(n int) []TypeStats {
	if n <= 0 || len(s.perType) == 0 {
		return []TypeStats{}
	}

	stats := make([]TypeStats, 0, len(s.perType))
	for _, ts := range s.perType {
		stats = append(stats, *ts)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].ID < stats[j].ID
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}
