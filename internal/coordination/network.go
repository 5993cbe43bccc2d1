package coordination

import (
	"math"
	"sort"

	"spreadscope/internal/model"
)

// DetectNetwork links accounts that acted on the same target post and reports
// connected components of at least MinGroupSize accounts.
func (d *Detector) DetectNetwork(sorted []model.SpreadEvent) []model.CoordinationPattern {
	byTarget := make(map[string][]string)
	var targets []string
	byAccount := make(map[string][]model.SpreadEvent)
	var order []string
	for _, e := range sorted {
		if e.Type == model.EventOriginal {
			continue
		}
		if _, ok := byAccount[e.AccountID]; !ok {
			order = append(order, e.AccountID)
		}
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
		if _, ok := byTarget[e.TargetPostID]; !ok {
			targets = append(targets, e.TargetPostID)
		}
		byTarget[e.TargetPostID] = append(byTarget[e.TargetPostID], e.AccountID)
	}

	// linking each account to the target's first actor yields the same
	// components as a full clique
	adj := make(map[string]map[string]struct{}, len(order))
	link := func(a, b string) {
		if a == b {
			return
		}
		if adj[a] == nil {
			adj[a] = make(map[string]struct{})
		}
		if adj[b] == nil {
			adj[b] = make(map[string]struct{})
		}
		adj[a][b] = struct{}{}
		adj[b][a] = struct{}{}
	}
	for _, t := range targets {
		accts := byTarget[t]
		for _, a := range accts[1:] {
			link(accts[0], a)
		}
	}

	visited := make(map[string]bool, len(order))
	var out []model.CoordinationPattern
	for _, start := range order {
		if visited[start] {
			continue
		}
		visited[start] = true
		comp := []string{start}
		for q := 0; q < len(comp); q++ {
			next := make([]string, 0, len(adj[comp[q]]))
			for n := range adj[comp[q]] {
				next = append(next, n)
			}
			sort.Strings(next)
			for _, n := range next {
				if !visited[n] {
					visited[n] = true
					comp = append(comp, n)
				}
			}
		}
		if len(comp) < d.MinGroupSize {
			continue
		}

		var ev []model.Evidence
		for _, a := range comp {
			for _, e := range byAccount[a] {
				ev = append(ev, toEvidence(e))
			}
		}
		sort.SliceStable(ev, func(i, j int) bool { return ev[i].Timestamp.Before(ev[j].Timestamp) })
		out = append(out, newPattern(model.PatternNetwork, networkConfidence(comp, byAccount), ev))
	}
	return out
}

// networkConfidence blends mean activity per account (10 events = saturated)
// with how consistently multi-event accounts repeat the same action type.
func networkConfidence(comp []string, byAccount map[string][]model.SpreadEvent) float64 {
	total := 0
	consistency, multi := 0.0, 0
	for _, a := range comp {
		evs := byAccount[a]
		total += len(evs)
		if len(evs) < 2 {
			continue
		}
		types := make(map[model.EventType]struct{})
		for _, e := range evs {
			types[e.Type] = struct{}{}
		}
		consistency += 1 - float64(len(types))/float64(len(evs))
		multi++
	}
	density := math.Min(float64(total)/float64(len(comp))/10, 1)
	behavior := 0.0
	if multi > 0 {
		behavior = consistency / float64(multi)
	}
	return 0.6*density + 0.4*behavior
}
