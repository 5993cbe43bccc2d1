package coordination

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadscope/internal/model"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func ev(id, account string, typ model.EventType, at time.Time, text string) model.SpreadEvent {
	return model.SpreadEvent{ID: id, Type: typ, AccountID: account, TargetPostID: "p0", Timestamp: at, Depth: 1, Text: text}
}

// burstCascade is an original post, twenty reposts half a second apart a
// minute later, and five organic reposts spread over three hours.
func burstCascade() []model.SpreadEvent {
	events := []model.SpreadEvent{{ID: "p0", Type: model.EventOriginal, AccountID: "author", TargetPostID: "p0", Timestamp: t0}}
	for i := 0; i < 20; i++ {
		at := t0.Add(time.Minute + time.Duration(i)*500*time.Millisecond)
		events = append(events, ev(fmt.Sprintf("rt_bot_%02d", i), fmt.Sprintf("bot%02d", i), model.EventRepost, at, ""))
	}
	for i, off := range []time.Duration{10 * time.Minute, 30 * time.Minute, time.Hour, 2 * time.Hour, 3 * time.Hour} {
		events = append(events, ev(fmt.Sprintf("rt_h_%d", i), fmt.Sprintf("human%d", i), model.EventRepost, t0.Add(off), ""))
	}
	return events
}

func TestDetectCoordination_BurstBecomesMixedPattern(t *testing.T) {
	d := NewDetector()
	patterns := d.DetectCoordination(burstCascade(), "an-1")
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, model.PatternMixed, p.Type)
	assert.ElementsMatch(t, []model.PatternType{model.PatternNetwork, model.PatternTemporal}, p.DetectedBy)
	assert.Equal(t, "an-1", p.AnalysisID)
	assert.NotEmpty(t, p.ID)
	assert.Greater(t, p.Confidence, 0.5)
	for i := 0; i < 20; i++ {
		assert.Contains(t, p.Accounts, fmt.Sprintf("bot%02d", i))
	}
	assert.Equal(t, t0, p.TimeWindow.Start)
	assert.Equal(t, t0.Add(3*time.Hour), p.TimeWindow.End)
	assert.True(t, isSortedStrings(p.Accounts))
}

func TestDetectCoordination_Deterministic(t *testing.T) {
	d := NewDetector()
	a := d.DetectCoordination(burstCascade(), "an-1")
	b := d.DetectCoordination(burstCascade(), "an-1")
	assert.Equal(t, a, b)

	other := d.DetectCoordination(burstCascade(), "an-2")
	require.Len(t, other, 1)
	assert.NotEqual(t, a[0].ID, other[0].ID)
}

func TestDetectTemporal_Confidence(t *testing.T) {
	d := NewDetector()
	patterns := d.DetectTemporal(burstCascade())
	require.Len(t, patterns, 1)
	p := patterns[0]
	assert.Len(t, p.Accounts, 21)
	assert.Len(t, p.Evidence, 21)
	// spread 69.5s, every event a distinct account, 19 of 20 gaps short
	want := 0.4*(1-69.5/3600) + 0.3*0 + 0.3*0.95
	assert.InDelta(t, want, p.Confidence, 1e-9)
}

func TestDetectTemporal_NeedsDistinctAccounts(t *testing.T) {
	d := NewDetector()
	events := []model.SpreadEvent{
		ev("1", "a", model.EventRepost, t0, ""),
		ev("2", "b", model.EventRepost, t0.Add(time.Second), ""),
		ev("3", "a", model.EventReply, t0.Add(2*time.Second), ""),
	}
	assert.Empty(t, d.DetectTemporal(events))
}

func TestDetectTemporal_AnchorThreshold(t *testing.T) {
	d := NewDetector()
	events := []model.SpreadEvent{
		ev("1", "a", model.EventRepost, t0, ""),
		ev("2", "b", model.EventRepost, t0.Add(2*time.Minute), ""),
		// more than three minutes after the first anchor opens a new bucket
		ev("3", "c", model.EventRepost, t0.Add(4*time.Minute), ""),
	}
	assert.Empty(t, d.DetectTemporal(events))
}

func TestDetectContent_GroupsNearDuplicates(t *testing.T) {
	d := NewDetector()
	text := "vote now for change today"
	events := []model.SpreadEvent{
		ev("1", "a", model.EventQuote, t0, text),
		ev("2", "b", model.EventQuote, t0.Add(time.Hour), "VOTE now for change today"),
		ev("3", "c", model.EventQuote, t0.Add(2*time.Hour), text),
		ev("4", "d", model.EventQuote, t0.Add(3*time.Hour), "completely different words here"),
		ev("5", "e", model.EventRepost, t0.Add(4*time.Hour), ""),
	}
	patterns := d.DetectContent(events)
	require.Len(t, patterns, 1)
	p := patterns[0]
	assert.Equal(t, model.PatternContent, p.Type)
	assert.Equal(t, []string{"a", "b", "c"}, p.Accounts)
	assert.InDelta(t, 0.7, p.Confidence, 1e-9)
	for _, e := range p.Evidence {
		assert.InDelta(t, 1.0, e.Similarity, 1e-9)
	}
}

func TestDetectContent_SkipsEmptyText(t *testing.T) {
	d := NewDetector()
	events := []model.SpreadEvent{
		ev("1", "a", model.EventRepost, t0, ""),
		ev("2", "b", model.EventRepost, t0, "   "),
		ev("3", "c", model.EventRepost, t0, ""),
	}
	assert.Empty(t, d.DetectContent(events))
}

func TestDetectNetwork_SharedTargets(t *testing.T) {
	d := NewDetector()
	mk := func(id, account, target string, typ model.EventType) model.SpreadEvent {
		e := ev(id, account, typ, t0, "")
		e.TargetPostID = target
		return e
	}

	small := []model.SpreadEvent{mk("1", "a", "x", model.EventRepost), mk("2", "b", "x", model.EventRepost), mk("3", "c", "y", model.EventRepost)}
	assert.Empty(t, d.DetectNetwork(small))

	events := []model.SpreadEvent{
		mk("1", "a", "x", model.EventRepost),
		mk("2", "b", "x", model.EventRepost),
		mk("3", "b", "y", model.EventRepost),
		mk("4", "c", "y", model.EventReply),
	}
	patterns := d.DetectNetwork(events)
	require.Len(t, patterns, 1)
	p := patterns[0]
	assert.Equal(t, []string{"a", "b", "c"}, p.Accounts)
	// 4 events over 3 accounts; b repeats one type over two events
	want := 0.6*(4.0/3.0/10) + 0.4*0.5
	assert.InDelta(t, want, p.Confidence, 1e-9)
}

func TestMerge_ReachesFixpoint(t *testing.T) {
	d := NewDetector()
	mk := func(typ model.PatternType, conf float64, accounts ...string) model.CoordinationPattern {
		var evidence []model.Evidence
		for i, a := range accounts {
			evidence = append(evidence, model.Evidence{EventID: string(typ) + a, AccountID: a, Timestamp: t0.Add(time.Duration(i) * time.Minute)})
		}
		return newPattern(typ, conf, evidence)
	}
	// p3 overlaps p1 and p2 by one account each, but their union by two
	patterns := []model.CoordinationPattern{
		mk(model.PatternTemporal, 0.4, "a", "b", "x"),
		mk(model.PatternContent, 0.9, "a", "b", "y"),
		mk(model.PatternNetwork, 0.2, "x", "y", "z"),
		mk(model.PatternTemporal, 0.3, "p", "q", "r"),
	}
	merged := d.Merge(patterns)
	require.Len(t, merged, 2)
	assert.Equal(t, model.PatternMixed, merged[0].Type)
	assert.Equal(t, []string{"a", "b", "x", "y", "z"}, merged[0].Accounts)
	assert.Equal(t, 0.9, merged[0].Confidence)
	assert.Len(t, merged[0].DetectedBy, 3)
	assert.Equal(t, model.PatternTemporal, merged[1].Type)

	assert.Equal(t, merged, d.Merge(merged))
}

func TestDetectCoordination_Empty(t *testing.T) {
	got := NewDetector().DetectCoordination(nil, "x")
	require.NotNil(t, got)
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func isSortedStrings(xs []string) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i-1] > xs[i] {
			return false
		}
	}
	return true
}
