package coordination

import (
	"time"

	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

// DetectTemporal groups time-sorted events into buckets anchored at their
// first event. An event joins the first bucket whose anchor is within the
// threshold, otherwise it opens a new bucket.
func (d *Detector) DetectTemporal(sorted []model.SpreadEvent) []model.CoordinationPattern {
	type bucket struct {
		anchor time.Time
		events []model.SpreadEvent
	}
	var buckets []*bucket
	for _, e := range sorted {
		placed := false
		for _, b := range buckets {
			if absDuration(e.Timestamp.Sub(b.anchor)) <= d.TemporalThreshold {
				b.events = append(b.events, e)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, &bucket{anchor: e.Timestamp, events: []model.SpreadEvent{e}})
		}
	}

	var out []model.CoordinationPattern
	for _, b := range buckets {
		if len(b.events) < d.MinGroupSize || distinctAccounts(b.events) < d.MinGroupSize {
			continue
		}
		out = append(out, newPattern(model.PatternTemporal, temporalConfidence(b.events), evidenceOf(b.events)))
	}
	return out
}

// temporalConfidence rewards tight spread (one hour = fully spread), few
// distinct accounts per event and bursty gaps.
func temporalConfidence(events []model.SpreadEvent) float64 {
	ts := make([]time.Time, len(events))
	for i, e := range events {
		ts[i] = e.Timestamp
	}
	gaps := util.Intervals(ts)
	spread := 0.0
	for _, g := range gaps {
		spread += g
	}
	normSpread := util.Clamp01(spread / time.Hour.Seconds())
	return 0.4*(1-normSpread) + 0.3*(1-accountDiversity(events)) + 0.3*util.Burstiness(gaps)
}

func evidenceOf(events []model.SpreadEvent) []model.Evidence {
	out := make([]model.Evidence, len(events))
	for i, e := range events {
		out[i] = toEvidence(e)
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
