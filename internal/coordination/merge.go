package coordination

import (
	"sort"

	"spreadscope/internal/model"
)

// Merge unions patterns that share at least MinGroupSize-1 accounts.
// Merging repeats until no two surviving patterns overlap, so Merge is
// idempotent. A group of two or more patterns becomes PatternMixed and keeps
// the highest confidence of its members.
func (d *Detector) Merge(patterns []model.CoordinationPattern) []model.CoordinationPattern {
	overlap := d.MinGroupSize - 1
	if overlap < 1 {
		overlap = 1
	}
	current := append([]model.CoordinationPattern(nil), patterns...)
	for {
		next, changed := mergeOnce(current, overlap)
		current = next
		if !changed {
			return current
		}
	}
}

func mergeOnce(patterns []model.CoordinationPattern, overlap int) ([]model.CoordinationPattern, bool) {
	parent := make([]int, len(patterns))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	sets := make([]map[string]struct{}, len(patterns))
	for i, p := range patterns {
		sets[i] = make(map[string]struct{}, len(p.Accounts))
		for _, a := range p.Accounts {
			sets[i][a] = struct{}{}
		}
	}
	changed := false
	for i := range patterns {
		for j := i + 1; j < len(patterns); j++ {
			if sharedCount(sets[i], sets[j]) < overlap {
				continue
			}
			ri, rj := find(i), find(j)
			if ri != rj {
				parent[rj] = ri
				changed = true
			}
		}
	}
	if !changed {
		return patterns, false
	}

	groups := make(map[int][]int)
	var roots []int
	for i := range patterns {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}
	out := make([]model.CoordinationPattern, 0, len(roots))
	for _, r := range roots {
		members := groups[r]
		if len(members) == 1 {
			out = append(out, patterns[members[0]])
			continue
		}
		group := make([]model.CoordinationPattern, len(members))
		for k, idx := range members {
			group[k] = patterns[idx]
		}
		out = append(out, combine(group))
	}
	return out, true
}

func combine(group []model.CoordinationPattern) model.CoordinationPattern {
	merged := model.CoordinationPattern{Type: model.PatternMixed}
	seenEvent := make(map[string]struct{})
	detected := make(map[model.PatternType]struct{})
	for _, p := range group {
		if p.Confidence > merged.Confidence {
			merged.Confidence = p.Confidence
		}
		for _, t := range p.DetectedBy {
			detected[t] = struct{}{}
		}
		for _, e := range p.Evidence {
			key := e.EventID + "|" + e.AccountID
			if _, ok := seenEvent[key]; ok {
				continue
			}
			seenEvent[key] = struct{}{}
			merged.Evidence = append(merged.Evidence, e)
		}
	}
	sort.SliceStable(merged.Evidence, func(i, j int) bool {
		return merged.Evidence[i].Timestamp.Before(merged.Evidence[j].Timestamp)
	})
	for t := range detected {
		merged.DetectedBy = append(merged.DetectedBy, t)
	}
	sort.Slice(merged.DetectedBy, func(i, j int) bool { return merged.DetectedBy[i] < merged.DetectedBy[j] })

	accounts := make(map[string]struct{})
	for _, p := range group {
		for _, a := range p.Accounts {
			accounts[a] = struct{}{}
		}
	}
	for a := range accounts {
		merged.Accounts = append(merged.Accounts, a)
	}
	sort.Strings(merged.Accounts)
	merged.TimeWindow = evidenceWindow(merged.Evidence)
	return merged
}

func sharedCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
