// Package analytics buckets cascade activity over time for reporting.
package analytics

import (
	"sort"
	"time"

	"spreadscope/internal/model"
)

// Bucket counts the events of one interval by type.
type Bucket struct {
	Start  time.Time               `json:"start"`
	Counts map[model.EventType]int `json:"counts"`
	Total  int                     `json:"total"`
}

// Activity aggregates events into UTC buckets of the given width (an hour
// when width <= 0). Buckets are returned oldest first; empty intervals are omitted.
func Activity(events []model.SpreadEvent, width time.Duration) []Bucket {
	if width <= 0 {
		width = time.Hour
	}
	buckets := make(map[time.Time]*Bucket)
	for _, e := range events {
		key := e.Timestamp.UTC().Truncate(width)
		b, ok := buckets[key]
		if !ok {
			b = &Bucket{Start: key, Counts: make(map[model.EventType]int)}
			buckets[key] = b
		}
		b.Counts[e.Type]++
		b.Total++
	}
	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Peak returns the busiest bucket, the earliest on ties. ok is false for no buckets.
func Peak(buckets []Bucket) (Bucket, bool) {
	if len(buckets) == 0 {
		return Bucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Total > best.Total {
			best = b
		}
	}
	return best, true
}
