package anomaly

import (
	"fmt"
	"math"
	"sort"
	"time"

	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

// windows splits time-sorted events into fixed windows starting at the first
// event. Empty windows between the first and last event are kept.
func windows(events []model.SpreadEvent, size time.Duration) [][]model.SpreadEvent {
	if len(events) == 0 {
		return nil
	}
	start := events[0].Timestamp
	n := int(events[len(events)-1].Timestamp.Sub(start)/size) + 1
	out := make([][]model.SpreadEvent, n)
	for _, e := range events {
		idx := int(e.Timestamp.Sub(start) / size)
		out[idx] = append(out[idx], e)
	}
	return out
}

func detectSpikes(events []model.SpreadEvent) []model.Anomaly {
	buckets := windows(events, SpikeWindow)
	counts := make([]float64, len(buckets))
	for i, b := range buckets {
		counts[i] = float64(len(b))
	}
	mean, std := util.Mean(counts), util.StdDev(counts)
	if std == 0 {
		return nil
	}
	start := events[0].Timestamp
	var out []model.Anomaly
	for i, c := range counts {
		z := (c - mean) / std
		if math.Abs(z) <= SpikeZThreshold {
			continue
		}
		out = append(out, model.Anomaly{
			Type:             model.AnomalySpike,
			Severity:         spikeSeverity(math.Abs(z)),
			Timestamp:        start.Add(time.Duration(i) * SpikeWindow),
			Description:      fmt.Sprintf("volume spike: %d events in %s window (mean %.1f, z=%.2f)", int(c), SpikeWindow, mean, z),
			AffectedAccounts: accountsOf(buckets[i]),
			Metrics: model.AnomalyMetrics{
				Deviation:  z,
				Baseline:   mean,
				Observed:   c,
				Confidence: math.Min(0.99, math.Abs(z)/5),
			},
		})
	}
	return out
}

func spikeSeverity(absZ float64) model.Severity {
	switch {
	case absZ >= 5:
		return model.SeverityCritical
	case absZ >= 4:
		return model.SeverityHigh
	default:
		return model.SeverityMedium
	}
}

func detectRegularity(events []model.SpreadEvent) []model.Anomaly {
	byAccount := make(map[string][]time.Time)
	var order []string
	for _, e := range events {
		if _, ok := byAccount[e.AccountID]; !ok {
			order = append(order, e.AccountID)
		}
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e.Timestamp)
	}
	var out []model.Anomaly
	for _, acct := range order {
		ts := byAccount[acct]
		if len(ts) < RegularityEvents {
			continue
		}
		gaps := util.Intervals(ts)
		cv := util.CoefficientOfVariation(gaps)
		regularity := math.Max(0, 1-cv)
		if util.Mean(gaps) == 0 || regularity <= RegularityMin {
			continue
		}
		out = append(out, model.Anomaly{
			Type:             model.AnomalyPattern,
			Severity:         model.SeverityMedium,
			Timestamp:        ts[0],
			Description:      fmt.Sprintf("suspiciously regular activity: %d events, mean interval %.0fs, regularity %.2f", len(ts), util.Mean(gaps), regularity),
			AffectedAccounts: []string{acct},
			Metrics: model.AnomalyMetrics{
				Deviation:  cv,
				Baseline:   RegularityMin,
				Observed:   regularity,
				Confidence: 0.7,
			},
		})
	}
	return out
}

type behaviorKey struct {
	typ   model.EventType
	depth int
}

func detectBehaviorChange(events []model.SpreadEvent) []model.Anomaly {
	groups := make(map[behaviorKey][]model.SpreadEvent)
	var keys []behaviorKey
	for _, e := range events {
		k := behaviorKey{e.Type, e.Depth}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].depth < keys[j].depth
	})

	var out []model.Anomaly
	for _, k := range keys {
		group := groups[k]
		start := group[0].Timestamp
		var active []int
		buckets := windows(group, BehaviorWindow)
		for i, b := range buckets {
			if len(b) > 0 {
				active = append(active, i)
			}
		}
		for n := 1; n < len(active); n++ {
			prev, cur := buckets[active[n-1]], buckets[active[n]]
			change := math.Abs(float64(len(cur)-len(prev))) / math.Max(float64(len(prev)), 1)
			if change <= BehaviorChange {
				continue
			}
			sev := model.SeverityMedium
			if change > BehaviorHigh {
				sev = model.SeverityHigh
			}
			out = append(out, model.Anomaly{
				Type:             model.AnomalyBehavior,
				Severity:         sev,
				Timestamp:        start.Add(time.Duration(active[n]) * BehaviorWindow),
				Description:      fmt.Sprintf("behaviour change for %s at depth %d: %d -> %d events per %s", k.typ, k.depth, len(prev), len(cur), BehaviorWindow),
				AffectedAccounts: accountsOf(cur),
				Metrics: model.AnomalyMetrics{
					Deviation:  change,
					Baseline:   float64(len(prev)),
					Observed:   float64(len(cur)),
					Confidence: 0.7,
				},
			})
		}
	}
	return out
}

func detectNetwork(events []model.SpreadEvent) []model.Anomaly {
	var out []model.Anomaly

	deepest := events[0]
	for _, e := range events[1:] {
		if e.Depth > deepest.Depth {
			deepest = e
		}
	}
	if deepest.Depth > DeepCascade {
		var deep []model.SpreadEvent
		for _, e := range events {
			if e.Depth > DeepCascade {
				deep = append(deep, e)
			}
		}
		out = append(out, model.Anomaly{
			Type:             model.AnomalyNetwork,
			Severity:         model.SeverityHigh,
			Timestamp:        deepest.Timestamp,
			Description:      fmt.Sprintf("deep cascade: depth %d", deepest.Depth),
			AffectedAccounts: accountsOf(deep),
			Metrics: model.AnomalyMetrics{
				Deviation:  float64(deepest.Depth - DeepCascade),
				Baseline:   DeepCascade,
				Observed:   float64(deepest.Depth),
				Confidence: 0.8,
			},
		})
	}

	for _, root := range events {
		if root.Depth != 0 {
			continue
		}
		var children []model.SpreadEvent
		for _, e := range events {
			if e.Depth != 1 {
				continue
			}
			dt := e.Timestamp.Sub(root.Timestamp)
			if dt >= 0 && dt <= StarWindow {
				children = append(children, e)
			}
		}
		if len(children) <= StarChildren {
			continue
		}
		out = append(out, model.Anomaly{
			Type:             model.AnomalyNetwork,
			Severity:         model.SeverityHigh,
			Timestamp:        root.Timestamp,
			Description:      fmt.Sprintf("star pattern: %d direct reactions within %s", len(children), StarWindow),
			AffectedAccounts: accountsOf(children),
			Metrics: model.AnomalyMetrics{
				Deviation:  float64(len(children) - StarChildren),
				Baseline:   StarChildren,
				Observed:   float64(len(children)),
				Confidence: 0.9,
			},
		})
	}
	return out
}
