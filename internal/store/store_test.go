package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"spreadscope/internal/model"
)

func openMem(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAnalysisLifecycle(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()
	if err := db.CreateAnalysis(ctx, "a1", "tw1"); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateAnalysis(ctx, "a1", "other"); err != nil {
		t.Fatalf("re-create should be a no-op: %v", err)
	}
	if err := db.CreateAnalysis(ctx, "a2", "tw2"); err != nil {
		t.Fatal(err)
	}
	pending, err := db.ListPending(ctx, 10)
	if err != nil || len(pending) != 2 || pending[0].ID != "a1" || pending[0].TweetID != "tw1" {
		t.Fatalf("pending mismatch: %v %+v", err, pending)
	}

	if err := db.UpdateAnalysisStatus(ctx, "a1", model.StatusRunning, nil, ""); err != nil {
		t.Fatal(err)
	}
	summary := map[string]int{"patterns": 2}
	if err := db.UpdateAnalysisStatus(ctx, "a1", model.StatusCompleted, summary, ""); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetAnalysis(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusCompleted || got.Summary != `{"patterns":2}` {
		t.Fatalf("unexpected analysis: %+v", got)
	}

	if err := db.UpdateAnalysisStatus(ctx, "a2", model.StatusFailed, nil, "boom"); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetAnalysis(ctx, "a2"); got.Status != model.StatusFailed || got.Error != "boom" {
		t.Fatalf("failed status not stored: %+v", got)
	}
	if pending, _ := db.ListPending(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected no pending, got %d", len(pending))
	}
}

func TestNotFound(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()
	if _, err := db.GetAnalysis(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := db.UpdateAnalysisStatus(ctx, "missing", model.StatusRunning, nil, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpsertBotScoreIsKeyedByAccountAndSignal(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()
	r := model.BotDetectionResult{
		AccountID:      "u1",
		BotProbability: 0.8,
		Classification: model.ClassBot,
		Signals: []model.BotSignal{
			{Type: model.SignalAccountAge, Value: 0.9, Weight: 0.15},
			{Type: model.SignalFollowRatio, Value: 0.5, Weight: 0.15},
		},
	}
	if err := db.UpsertBotScore(ctx, "a1", r); err != nil {
		t.Fatal(err)
	}
	r.Signals[0].Value = 0.1
	if err := db.UpsertBotScore(ctx, "a2", r); err != nil {
		t.Fatal(err)
	}
	sigs, err := db.BotSignals(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 2 {
		t.Fatalf("want 2 rows, got %d", len(sigs))
	}
	if sigs[0].Type != model.SignalAccountAge || sigs[0].Value != 0.1 {
		t.Fatalf("upsert did not replace: %+v", sigs[0])
	}
}

func TestSavePatternAndAnomalyIdempotent(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	p := model.CoordinationPattern{
		ID: "p1", AnalysisID: "a1", Type: model.PatternTemporal, Accounts: []string{"x", "y", "z"}, Confidence: 0.6,
		Evidence:   []model.Evidence{{EventID: "e1", AccountID: "x", EventType: model.EventRepost, Timestamp: ts}},
		TimeWindow: model.TimeWindow{Start: ts, End: ts},
	}
	for i := 0; i < 2; i++ {
		if err := db.SavePattern(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	ps, err := db.Patterns(ctx, "a1")
	if err != nil || len(ps) != 1 || ps[0].Accounts[2] != "z" || !ps[0].Evidence[0].Timestamp.Equal(ts) {
		t.Fatalf("patterns mismatch: %v %+v", err, ps)
	}

	a := model.Anomaly{ID: "n1", AnalysisID: "a1", Type: model.AnomalySpike, Severity: model.SeverityHigh, Timestamp: ts,
		Description: "spike", AffectedAccounts: []string{"x"}, Metrics: model.AnomalyMetrics{Deviation: 4.2, Confidence: 0.84}}
	for i := 0; i < 2; i++ {
		if err := db.SaveAnomaly(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	as, err := db.Anomalies(ctx, "a1")
	if err != nil || len(as) != 1 || as[0].Metrics.Deviation != 4.2 {
		t.Fatalf("anomalies mismatch: %v %+v", err, as)
	}
}

func TestGraphTraversal(t *testing.T) {
	db := openMem(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	nodes := []model.NetworkNode{
		{ID: "a", AccountID: "a", Role: model.RoleSource, InfluenceScore: 72, FirstSeen: ts},
		{ID: "b", AccountID: "b", Role: model.RoleSpreader, FirstSeen: ts.Add(time.Minute)},
		{ID: "c", AccountID: "c", Role: model.RoleSpreader, FirstSeen: ts.Add(2 * time.Minute)},
		{ID: "d", AccountID: "d", Role: model.RoleSpreader, FirstSeen: ts.Add(3 * time.Minute)},
	}
	edges := []model.NetworkEdge{
		{Source: "b", Target: "a", Type: model.EventRepost, Weight: 1, Timestamp: ts.Add(time.Minute)},
		{Source: "c", Target: "a", Type: model.EventQuote, Weight: 2, Timestamp: ts.Add(2 * time.Minute)},
		{Source: "d", Target: "b", Type: model.EventReply, Weight: 1.5, Timestamp: ts.Add(3 * time.Minute)},
	}
	// saving twice replaces rather than duplicates
	for i := 0; i < 2; i++ {
		if err := db.SaveGraph(ctx, "a1", nodes, edges); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.Nodes(ctx, "a1")
	if err != nil || len(got) != 4 || got[0].AccountID != "a" || got[0].InfluenceScore != 72 {
		t.Fatalf("nodes mismatch: %v %+v", err, got)
	}

	n, err := db.Neighbors(ctx, "a1", "b")
	if err != nil || !equal(n, []string{"a", "d"}) {
		t.Fatalf("neighbors: %v %v", err, n)
	}
	r, err := db.Reachable(ctx, "a1", "a", 1)
	if err != nil || !equal(r, []string{"b", "c"}) {
		t.Fatalf("reachable 1 hop: %v %v", err, r)
	}
	r, err = db.Reachable(ctx, "a1", "a", 0)
	if err != nil || !equal(r, []string{"b", "c", "d"}) {
		t.Fatalf("reachable unbounded: %v %v", err, r)
	}
	if r, _ := db.Reachable(ctx, "other", "a", 0); len(r) != 0 {
		t.Fatalf("graphs must be scoped per analysis: %v", r)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
