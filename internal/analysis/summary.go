package analysis

import "spreadscope/internal/model"

const topInfluencers = 5

// Summary is the composite analysis record stored on completion.
type Summary struct {
	AnalysisID     string                 `json:"analysis_id"`
	Network        NetworkSummary         `json:"network"`
	Bots           BotSummary             `json:"bots"`
	Coordination   CoordinationSummary    `json:"coordination"`
	Anomalies      AnomalySummary         `json:"anomalies"`
	TopInfluencers []model.InfluencerNode `json:"top_influencers"`
}

type NetworkSummary struct {
	NodeCount int     `json:"node_count"`
	EdgeCount int     `json:"edge_count"`
	Clusters  int     `json:"clusters"`
	Paths     int     `json:"paths"`
	Density   float64 `json:"density"`
}

type BotSummary struct {
	Total       int                              `json:"total"`
	Counts      map[model.Classification]int     `json:"counts"`
	Percentages map[model.Classification]float64 `json:"percentages"`
}

type CoordinationSummary struct {
	Total          int                       `json:"total"`
	HighConfidence int                       `json:"high_confidence"`
	ByType         map[model.PatternType]int `json:"by_type"`
}

type AnomalySummary struct {
	Total      int                    `json:"total"`
	BySeverity map[model.Severity]int `json:"by_severity"`
}

// Summarize condenses res. Patterns with confidence >= highConfidence count as high.
func Summarize(res *Result, highConfidence float64) Summary {
	s := Summary{
		AnalysisID: res.AnalysisID,
		Network: NetworkSummary{
			NodeCount: res.Network.Metrics.NodeCount,
			EdgeCount: res.Network.Metrics.EdgeCount,
			Clusters:  len(res.Network.Clusters),
			Paths:     len(res.Network.PropagationPaths),
			Density:   res.Network.Metrics.Density,
		},
		Bots: BotSummary{
			Total:       len(res.Bots),
			Counts:      map[model.Classification]int{},
			Percentages: map[model.Classification]float64{},
		},
		Coordination: CoordinationSummary{Total: len(res.Patterns), ByType: map[model.PatternType]int{}},
		Anomalies:    AnomalySummary{Total: len(res.Anomalies), BySeverity: map[model.Severity]int{}},
	}

	classes := []model.Classification{model.ClassHuman, model.ClassUncertain, model.ClassCyborg, model.ClassBot}
	for _, c := range classes {
		s.Bots.Counts[c] = 0
	}
	for _, b := range res.Bots {
		s.Bots.Counts[b.Classification]++
	}
	for _, c := range classes {
		if s.Bots.Total > 0 {
			s.Bots.Percentages[c] = float64(s.Bots.Counts[c]) / float64(s.Bots.Total) * 100
		} else {
			s.Bots.Percentages[c] = 0
		}
	}

	for _, p := range res.Patterns {
		s.Coordination.ByType[p.Type]++
		if p.Confidence >= highConfidence {
			s.Coordination.HighConfidence++
		}
	}

	for _, sev := range []model.Severity{model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical} {
		s.Anomalies.BySeverity[sev] = 0
	}
	for _, a := range res.Anomalies {
		s.Anomalies.BySeverity[a.Severity]++
	}

	top := res.Network.Influencers
	if len(top) > topInfluencers {
		top = top[:topInfluencers]
	}
	s.TopInfluencers = append([]model.InfluencerNode{}, top...)
	return s
}
