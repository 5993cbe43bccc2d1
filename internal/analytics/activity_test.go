package analytics

import (
	"testing"
	"time"

	"spreadscope/internal/model"
)

func TestActivityBuckets(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 9, 10, 0, 0, time.UTC)
	events := []model.SpreadEvent{
		{Type: model.EventOriginal, Timestamp: t0},
		{Type: model.EventRepost, Timestamp: t0.Add(5 * time.Minute)},
		{Type: model.EventRepost, Timestamp: t0.Add(2 * time.Hour)},
		{Type: model.EventReply, Timestamp: t0.Add(2*time.Hour + time.Minute)},
		{Type: model.EventRepost, Timestamp: t0.Add(2*time.Hour + 2*time.Minute)},
	}
	b := Activity(events, 0)
	if len(b) != 2 {
		t.Fatalf("expected 2 buckets (empty hour omitted), got %d", len(b))
	}
	if !b[0].Start.Equal(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)) || b[0].Total != 2 {
		t.Fatalf("first bucket: %+v", b[0])
	}
	if b[1].Counts[model.EventRepost] != 2 || b[1].Counts[model.EventReply] != 1 {
		t.Fatalf("second bucket counts: %+v", b[1].Counts)
	}
	p, ok := Peak(b)
	if !ok || p.Total != 3 {
		t.Fatalf("peak: %+v %v", p, ok)
	}
}

func TestActivityWidthAndEmpty(t *testing.T) {
	t0 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	events := []model.SpreadEvent{
		{Type: model.EventRepost, Timestamp: t0.Add(time.Minute)},
		{Type: model.EventRepost, Timestamp: t0.Add(6 * time.Minute)},
	}
	if got := len(Activity(events, 5*time.Minute)); got != 2 {
		t.Fatalf("5m buckets: %d", got)
	}
	if _, ok := Peak(Activity(nil, time.Minute)); ok {
		t.Fatalf("peak of nothing should be absent")
	}
}
