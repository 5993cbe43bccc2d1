package analysis

import (
	"math"
	"sort"

	"spreadscope/internal/model"
	"spreadscope/internal/network"
)

// InfluenceScore is the blended per-account influence, every component on 0..100.
type InfluenceScore struct {
	AccountID     string  `json:"account_id"`
	Overall       float64 `json:"overall"`
	Base          float64 `json:"base"`
	Reach         float64 `json:"reach"`
	Engagement    float64 `json:"engagement"`
	Amplification float64 `json:"amplification"`
	Persistence   float64 `json:"persistence"`
}

// InfluenceScores blends graph position with timeline activity for every
// node: 0.3 base + 0.2 reach + 0.2 engagement + 0.15 amplification + 0.15 persistence.
// Sorted by overall score, highest first.
func InfluenceScores(na model.NetworkAnalysis, timeline []model.SpreadEvent) []InfluenceScore {
	reach := network.NodeReach(na)
	byAccount := make(map[string][]model.SpreadEvent)
	for _, e := range timeline {
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}

	out := make([]InfluenceScore, 0, len(na.Nodes))
	for _, n := range na.Nodes {
		events := byAccount[n.AccountID]
		r := reach[n.AccountID]
		s := InfluenceScore{
			AccountID:     n.AccountID,
			Base:          n.InfluenceScore,
			Reach:         math.Min(100, float64(r.Direct)+0.5*float64(r.Indirect)),
			Amplification: amplification(events, timeline),
			Persistence:   persistence(events),
		}
		if len(timeline) > 0 {
			s.Engagement = float64(len(events)) / float64(len(timeline)) * 100
		}
		s.Overall = 0.3*s.Base + 0.2*s.Reach + 0.2*s.Engagement + 0.15*s.Amplification + 0.15*s.Persistence
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Overall != out[j].Overall {
			return out[i].Overall > out[j].Overall
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

// amplification counts, over the account's actions, the timeline events
// that come later and sit deeper in the cascade.
func amplification(own, timeline []model.SpreadEvent) float64 {
	n := 0
	for _, e := range own {
		for _, f := range timeline {
			if f.Timestamp.After(e.Timestamp) && f.Depth > e.Depth {
				n++
			}
		}
	}
	return math.Min(100, float64(n))
}

// persistence is ten points per hour between the account's first and last action.
func persistence(own []model.SpreadEvent) float64 {
	if len(own) < 2 {
		return 0
	}
	first, last := own[0].Timestamp, own[0].Timestamp
	for _, e := range own[1:] {
		if e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	return math.Min(100, last.Sub(first).Hours()*10)
}
