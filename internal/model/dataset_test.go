package model

import (
	"errors"
	"testing"
	"time"
)

func sampleDataset() SpreadDataset {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return SpreadDataset{
		Original: Post{ID: "p0", AuthorID: "a", Text: "hello", CreatedAt: t0},
		Reposts: []Participation{
			{AuthorID: "b", Timestamp: t0.Add(2 * time.Minute), Depth: 1},
			{AuthorID: "c", Timestamp: t0.Add(1 * time.Minute), Depth: 1},
		},
		Replies: []Participation{{ID: "r1", AuthorID: "b", Timestamp: t0.Add(30 * time.Second), Depth: 1, Text: "nice"}},
	}
}

func TestTimelineOrdersAndIncludesOriginal(t *testing.T) {
	tl := Timeline(sampleDataset())
	if len(tl) != 4 {
		t.Fatalf("expected 4 events, got %d", len(tl))
	}
	if tl[0].Type != EventOriginal || tl[0].Depth != 0 || tl[0].AccountID != "a" {
		t.Fatalf("first event should be the original post, got %+v", tl[0])
	}
	for i := 1; i < len(tl); i++ {
		if tl[i].Timestamp.Before(tl[i-1].Timestamp) {
			t.Fatalf("timeline not ordered at %d", i)
		}
	}
	if tl[1].ID != "r1" || tl[1].TargetPostID != "p0" {
		t.Fatalf("unexpected second event %+v", tl[1])
	}
	if tl[2].ID != "retweet_1" {
		t.Fatalf("expected generated id retweet_1, got %s", tl[2].ID)
	}
}

func TestReferenceTimeFallsBackToLatestEvent(t *testing.T) {
	ds := sampleDataset()
	if got, want := ds.ReferenceTime(), ds.Original.CreatedAt.Add(2*time.Minute); !got.Equal(want) {
		t.Fatalf("reference time %v, want %v", got, want)
	}
	ds.CollectedAt = ds.Original.CreatedAt.Add(time.Hour)
	if !ds.ReferenceTime().Equal(ds.CollectedAt) {
		t.Fatalf("expected collected_at to win")
	}
}

func TestAccountIDsDeduplicated(t *testing.T) {
	ids := sampleDataset().AccountIDs()
	if len(ids) != 3 || ids[0] != "a" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestValidateRejectsMissingTimestamps(t *testing.T) {
	ds := sampleDataset()
	if err := Validate(ds); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}
	ds.Reposts[0].Timestamp = time.Time{}
	err := Validate(ds)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 1 {
		t.Fatalf("expected one failing field, got %v", verr.Fields)
	}
}

func TestValidateRejectsNegativeDepthAndEmptyOriginal(t *testing.T) {
	ds := sampleDataset()
	ds.Replies[0].Depth = -1
	if err := Validate(ds); err == nil {
		t.Fatalf("expected error for negative depth")
	}
	if err := Validate(SpreadDataset{}); !errors.Is(err, ErrNoOriginal) {
		t.Fatalf("expected ErrNoOriginal, got %v", err)
	}
}
