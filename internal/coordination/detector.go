// Package coordination finds groups of accounts whose timing, content or
// shared targets suggest organised behaviour.
package coordination

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"spreadscope/internal/model"
	"spreadscope/internal/util"
)

// Defaults for the detector.
const (
	MinGroupSize        = 3
	TemporalThreshold   = 3 * time.Minute
	SimilarityThreshold = 0.8
)

// patternNamespace seeds the name-based pattern ids so reruns produce the same ids.
var patternNamespace = uuid.MustParse("6f1f6a3e-2f43-4b8e-9a57-0c4a8f2f7f10")

type Detector struct {
	MinGroupSize        int
	TemporalThreshold   time.Duration
	SimilarityThreshold float64
}

func NewDetector() *Detector {
	return &Detector{
		MinGroupSize:        MinGroupSize,
		TemporalThreshold:   TemporalThreshold,
		SimilarityThreshold: SimilarityThreshold,
	}
}

// DetectCoordination runs the temporal, content and network detectors and
// merges patterns that share accounts.
func (d *Detector) DetectCoordination(events []model.SpreadEvent, analysisID string) []model.CoordinationPattern {
	sorted := append([]model.SpreadEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var patterns []model.CoordinationPattern
	patterns = append(patterns, d.DetectTemporal(sorted)...)
	patterns = append(patterns, d.DetectContent(sorted)...)
	patterns = append(patterns, d.DetectNetwork(sorted)...)

	merged := d.Merge(patterns)
	if merged == nil {
		merged = []model.CoordinationPattern{}
	}
	for i := range merged {
		merged[i].AnalysisID = analysisID
		merged[i].ID = patternID(analysisID, merged[i])
	}
	return merged
}

func patternID(analysisID string, p model.CoordinationPattern) string {
	key := fmt.Sprintf("%s|%s|%v", analysisID, p.Type, p.Accounts)
	return uuid.NewSHA1(patternNamespace, []byte(key)).String()
}

// newPattern fills the account set and time window from evidence.
func newPattern(typ model.PatternType, confidence float64, evidence []model.Evidence) model.CoordinationPattern {
	p := model.CoordinationPattern{
		Type:       typ,
		DetectedBy: []model.PatternType{typ},
		Confidence: util.Clamp01(confidence),
		Evidence:   evidence,
	}
	p.Accounts = evidenceAccounts(evidence)
	p.TimeWindow = evidenceWindow(evidence)
	return p
}

func evidenceAccounts(ev []model.Evidence) []string {
	set := make(map[string]struct{}, len(ev))
	for _, e := range ev {
		set[e.AccountID] = struct{}{}
	}
	return util.SortedKeys(set)
}

func evidenceWindow(ev []model.Evidence) model.TimeWindow {
	var w model.TimeWindow
	for i, e := range ev {
		if i == 0 || e.Timestamp.Before(w.Start) {
			w.Start = e.Timestamp
		}
		if i == 0 || e.Timestamp.After(w.End) {
			w.End = e.Timestamp
		}
	}
	return w
}

func toEvidence(e model.SpreadEvent) model.Evidence {
	return model.Evidence{EventID: e.ID, AccountID: e.AccountID, EventType: e.Type, Timestamp: e.Timestamp}
}

func distinctAccounts(events []model.SpreadEvent) int {
	set := make(map[string]struct{}, len(events))
	for _, e := range events {
		set[e.AccountID] = struct{}{}
	}
	return len(set)
}

// accountDiversity is distinct accounts per event.
func accountDiversity(events []model.SpreadEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	return float64(distinctAccounts(events)) / float64(len(events))
}
