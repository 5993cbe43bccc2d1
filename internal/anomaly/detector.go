// Package anomaly flags statistically unusual activity in a cascade timeline.
package anomaly

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"spreadscope/internal/model"
)

const (
	MinEvents = 10

	SpikeWindow      = 5 * time.Minute
	SpikeZThreshold  = 3.0
	BehaviorWindow   = 10 * time.Minute
	RegularityMin    = 0.8
	RegularityEvents = 5
	BehaviorChange   = 2.0
	BehaviorHigh     = 5.0
	DeepCascade      = 10
	StarWindow       = 60 * time.Second
	StarChildren     = 20
)

var anomalyNamespace = uuid.MustParse("0b7d1f5c-93a2-4d4e-8d61-5b2f7c9e4a21")

type Detector struct {
	MinEvents int
}

func NewDetector() *Detector { return &Detector{MinEvents: MinEvents} }

// DetectAnomalies runs the spike, regularity, behaviour and network checks
// over the timeline and returns deduplicated anomalies ranked by severity
// times confidence. Fewer than MinEvents events yields nothing.
func (d *Detector) DetectAnomalies(timeline []model.SpreadEvent, analysisID string) []model.Anomaly {
	if len(timeline) < d.MinEvents {
		return []model.Anomaly{}
	}
	events := append([]model.SpreadEvent(nil), timeline...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	var found []model.Anomaly
	found = append(found, detectSpikes(events)...)
	found = append(found, detectRegularity(events)...)
	found = append(found, detectBehaviorChange(events)...)
	found = append(found, detectNetwork(events)...)

	out := dedupe(found)
	for i := range out {
		out[i].AnalysisID = analysisID
		out[i].AffectedAccounts = nonNil(out[i].AffectedAccounts)
		out[i].ID = uuid.NewSHA1(anomalyNamespace, []byte(analysisID+"|"+dedupeKey(out[i]))).String()
	}
	if out == nil {
		out = []model.Anomaly{}
	}
	rank(out)
	return out
}

func dedupeKey(a model.Anomaly) string {
	accounts := append([]string(nil), a.AffectedAccounts...)
	sort.Strings(accounts)
	return fmt.Sprintf("%s|%s|%d", a.Type, strings.Join(accounts, ","), a.Timestamp.Truncate(time.Minute).Unix())
}

// dedupe keeps the higher-severity anomaly per key, the first one on ties.
func dedupe(in []model.Anomaly) []model.Anomaly {
	index := make(map[string]int, len(in))
	var out []model.Anomaly
	for _, a := range in {
		k := dedupeKey(a)
		if i, ok := index[k]; ok {
			if a.Severity.Rank() > out[i].Severity.Rank() {
				out[i] = a
			}
			continue
		}
		index[k] = len(out)
		out = append(out, a)
	}
	return out
}

func rank(as []model.Anomaly) {
	sort.SliceStable(as, func(i, j int) bool {
		si := float64(as[i].Severity.Rank()) * as[i].Metrics.Confidence
		sj := float64(as[j].Severity.Rank()) * as[j].Metrics.Confidence
		if si != sj {
			return si > sj
		}
		if !as[i].Timestamp.Equal(as[j].Timestamp) {
			return as[i].Timestamp.Before(as[j].Timestamp)
		}
		return as[i].ID < as[j].ID
	})
}

func accountsOf(events []model.SpreadEvent) []string {
	set := make(map[string]struct{}, len(events))
	for _, e := range events {
		set[e.AccountID] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
