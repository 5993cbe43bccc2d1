package network

import (
	"fmt"
	"sort"
	"time"

	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

// components returns the connected components of adj via breadth-first
// traversal, in first-seen node order. Members keep BFS order.
func (a adjacency) components() [][]string {
	visited := make(map[string]bool, len(a.order))
	var out [][]string
	for _, start := range a.order {
		if visited[start] {
			continue
		}
		visited[start] = true
		comp := []string{start}
		for q := 0; q < len(comp); q++ {
			for _, n := range a.neighbors(comp[q]) {
				if !visited[n] {
					visited[n] = true
					comp = append(comp, n)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}

func (an *Analyzer) detectClusters(nodes []model.NetworkNode, edges []model.NetworkEdge, adj adjacency) []model.Cluster {
	clusters := []model.Cluster{}
	for _, comp := range adj.components() {
		if len(comp) < an.MinClusterSize {
			continue
		}
		coherence := coherence(comp, adj)
		pattern := activityPattern(memberTimestamps(comp, nodes, edges))
		suspicion := util.Clamp01(0.4*pattern.CoordinationScore + 0.3*pattern.Burstiness + 0.3*coherence)
		members := append([]string(nil), comp...)
		sort.Strings(members)
		clusters = append(clusters, model.Cluster{
			ID:              fmt.Sprintf("cluster_%d", len(clusters)),
			Members:         members,
			Coherence:       coherence,
			ActivityPattern: pattern,
			SuspicionScore:  suspicion,
		})
	}
	return clusters
}

// coherence is undirected edge density: connected pairs / (n(n-1)/2).
func coherence(members []string, adj adjacency) float64 {
	n := len(members)
	if n < 2 {
		return 0
	}
	actual := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if adj.connected(members[i], members[j]) {
				actual++
			}
		}
	}
	return util.Clamp01(float64(actual) / (float64(n*(n-1)) / 2))
}

// memberTimestamps collects the participation times of members; members that
// never participated contribute their first-seen time.
func memberTimestamps(members []string, nodes []model.NetworkNode, edges []model.NetworkEdge) []time.Time {
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	acted := make(map[string]bool)
	var ts []time.Time
	for _, e := range edges {
		if in[e.Source] {
			ts = append(ts, e.Timestamp)
			acted[e.Source] = true
		}
	}
	for _, n := range nodes {
		if in[n.AccountID] && !acted[n.AccountID] {
			ts = append(ts, n.FirstSeen)
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	return ts
}

func activityPattern(ts []time.Time) model.ActivityPattern {
	var p model.ActivityPattern
	if len(ts) == 0 {
		return p
	}
	for _, t := range ts {
		u := t.UTC()
		p.HourlyDistribution[u.Hour()]++
		p.DailyDistribution[int(u.Weekday())]++
	}
	total := float64(len(ts))
	for i := range p.HourlyDistribution {
		p.HourlyDistribution[i] /= total
	}
	for i := range p.DailyDistribution {
		p.DailyDistribution[i] /= total
	}
	gaps := util.Intervals(ts)
	if len(gaps) == 0 {
		return p
	}
	p.CoordinationScore = util.Clamp01(1 - util.CoefficientOfVariation(gaps))
	p.Burstiness = util.Burstiness(gaps)
	return p
}
