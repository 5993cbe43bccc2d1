package coordination

import (
	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

// DetectContent greedily groups events whose text is near-identical to the
// group's seed event (Jaccard over lower-cased whitespace tokens).
func (d *Detector) DetectContent(sorted []model.SpreadEvent) []model.CoordinationPattern {
	var texts []model.SpreadEvent
	var tokens []map[string]struct{}
	for _, e := range sorted {
		set := util.TokenSet(e.Text)
		if len(set) == 0 {
			continue
		}
		texts = append(texts, e)
		tokens = append(tokens, set)
	}

	used := make([]bool, len(texts))
	var out []model.CoordinationPattern
	for i := range texts {
		if used[i] {
			continue
		}
		used[i] = true
		group := []int{i}
		for j := i + 1; j < len(texts); j++ {
			if used[j] {
				continue
			}
			if util.Jaccard(tokens[i], tokens[j]) >= d.SimilarityThreshold {
				used[j] = true
				group = append(group, j)
			}
		}
		events := make([]model.SpreadEvent, len(group))
		for k, idx := range group {
			events[k] = texts[idx]
		}
		if len(events) < d.MinGroupSize || distinctAccounts(events) < d.MinGroupSize {
			continue
		}

		pairSum, pairs := 0.0, 0
		for a := 0; a < len(group); a++ {
			for b := a + 1; b < len(group); b++ {
				pairSum += util.Jaccard(tokens[group[a]], tokens[group[b]])
				pairs++
			}
		}
		meanSim := pairSum / float64(pairs)

		ev := make([]model.Evidence, len(group))
		for k, idx := range group {
			ev[k] = toEvidence(texts[idx])
			ev[k].Similarity = util.Jaccard(tokens[i], tokens[idx])
		}
		conf := 0.7*meanSim + 0.3*(1-accountDiversity(events))
		out = append(out, newPattern(model.PatternContent, conf, ev))
	}
	return out
}
