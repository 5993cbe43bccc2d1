// Package analysis runs every detector over one dataset and records the outcome.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"spreadscope/internal/anomaly"
	"spreadscope/internal/bot"
	"spreadscope/internal/coordination"
	"spreadscope/internal/logging"
	"spreadscope/internal/metrics"
	"spreadscope/internal/model"
	"spreadscope/internal/network"
)

// DefaultHighConfidence is the pattern confidence counted as high in summaries.
const DefaultHighConfidence = 0.7

// Store is the persistence the orchestrator writes through.
type Store interface {
	UpdateAnalysisStatus(ctx context.Context, id string, status model.AnalysisStatus, summary any, errMsg string) error
	UpsertBotScore(ctx context.Context, analysisID string, r model.BotDetectionResult) error
	SavePattern(ctx context.Context, p model.CoordinationPattern) error
	SaveAnomaly(ctx context.Context, a model.Anomaly) error
	SaveGraph(ctx context.Context, analysisID string, nodes []model.NetworkNode, edges []model.NetworkEdge) error
}

type SummaryCache interface {
	SetSummary(ctx context.Context, analysisID string, summary any) error
}

// Orchestrator sequences the detectors. Store and Cache may be nil.
type Orchestrator struct {
	Network        *network.Analyzer
	Coordination   *coordination.Detector
	Anomaly        *anomaly.Detector
	Store          Store
	Cache          SummaryCache
	Logger         *logrus.Logger
	HighConfidence float64
}

func New(store Store, cache SummaryCache, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		Network:        network.NewAnalyzer(),
		Coordination:   coordination.NewDetector(),
		Anomaly:        anomaly.NewDetector(),
		Store:          store,
		Cache:          cache,
		Logger:         logging.Or(logger),
		HighConfidence: DefaultHighConfidence,
	}
}

// Result is everything one analysis produces.
type Result struct {
	AnalysisID string                      `json:"analysis_id"`
	Network    model.NetworkAnalysis       `json:"network"`
	Bots       []model.BotDetectionResult  `json:"bots"`
	Patterns   []model.CoordinationPattern `json:"patterns"`
	Anomalies  []model.Anomaly             `json:"anomalies"`
	Influence  []InfluenceScore            `json:"influence"`
	Summary    Summary                     `json:"summary"`
}

// Run marks the analysis running, computes every result and persists them.
// Per-item write failures are logged and skipped. A compute failure marks the
// analysis failed and is returned.
func (o *Orchestrator) Run(ctx context.Context, analysisID string, ds model.SpreadDataset) (*Result, error) {
	start := time.Now()
	log := logging.Or(o.Logger).WithField("analysis_id", analysisID)

	if o.Store != nil {
		if err := o.Store.UpdateAnalysisStatus(ctx, analysisID, model.StatusRunning, nil, ""); err != nil {
			return nil, fmt.Errorf("mark running: %w", err)
		}
	}

	res, err := o.Compute(ctx, analysisID, ds)
	if err != nil {
		log.WithError(err).Error("analysis_failed")
		metrics.ObserveAnalysis(string(model.StatusFailed), start)
		if o.Store != nil {
			if serr := o.Store.UpdateAnalysisStatus(ctx, analysisID, model.StatusFailed, nil, err.Error()); serr != nil {
				log.WithError(serr).Error("analysis_status_write")
			}
		}
		return nil, err
	}

	o.persist(ctx, log, res)
	if o.Store != nil {
		if err := o.Store.UpdateAnalysisStatus(ctx, analysisID, model.StatusCompleted, res.Summary, ""); err != nil {
			return res, fmt.Errorf("mark completed: %w", err)
		}
	}
	if o.Cache != nil {
		if err := o.Cache.SetSummary(ctx, analysisID, res.Summary); err != nil {
			log.WithError(err).Warn("summary_cache_write")
		}
	}
	metrics.ObserveAnalysis(string(model.StatusCompleted), start)
	log.WithFields(logrus.Fields{
		"nodes":     res.Summary.Network.NodeCount,
		"bots":      res.Summary.Bots.Counts[model.ClassBot],
		"patterns":  res.Summary.Coordination.Total,
		"anomalies": res.Summary.Anomalies.Total,
		"took_ms":   time.Since(start).Milliseconds(),
	}).Info("analysis_completed")
	return res, nil
}

// Compute validates ds and runs the four detectors concurrently without
// touching storage.
func (o *Orchestrator) Compute(ctx context.Context, analysisID string, ds model.SpreadDataset) (*Result, error) {
	if err := model.Validate(ds); err != nil {
		return nil, err
	}
	timeline := model.Timeline(ds)
	accounts := ds.ParticipantAccounts()
	bots := bot.NewDetector(ds.ReferenceTime())

	res := &Result{AnalysisID: analysisID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(gctx, "network", func() { res.Network = o.Network.AnalyzeNetwork(ds, analysisID) }))
	g.Go(guard(gctx, "bot", func() { res.Bots = bots.DetectBots(accounts) }))
	g.Go(guard(gctx, "coordination", func() { res.Patterns = o.Coordination.DetectCoordination(timeline, analysisID) }))
	g.Go(guard(gctx, "anomaly", func() { res.Anomalies = o.Anomaly.DetectAnomalies(timeline, analysisID) }))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Influence = InfluenceScores(res.Network, timeline)
	threshold := o.HighConfidence
	if threshold <= 0 {
		threshold = DefaultHighConfidence
	}
	res.Summary = Summarize(res, threshold)
	return res, nil
}

// guard times a detector and turns a panic into an error.
func guard(ctx context.Context, name string, fn func()) func() error {
	return func() (err error) {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s detector: %v", name, r)
			}
			metrics.ObserveDetector(name, start)
		}()
		fn()
		return nil
	}
}

func (o *Orchestrator) persist(ctx context.Context, log *logrus.Entry, res *Result) {
	if o.Store == nil {
		return
	}
	failed := func(kind, id string, err error) {
		metrics.IncStoreWriteError(kind)
		log.WithFields(logrus.Fields{"kind": kind, "item_id": id, "error": err.Error()}).Error("store_write_failed")
	}
	if err := o.Store.SaveGraph(ctx, res.AnalysisID, res.Network.Nodes, res.Network.Edges); err != nil {
		failed("graph", res.AnalysisID, err)
	}
	for _, b := range res.Bots {
		if err := o.Store.UpsertBotScore(ctx, res.AnalysisID, b); err != nil {
			failed("bot_score", b.AccountID, err)
		}
	}
	for _, p := range res.Patterns {
		if err := o.Store.SavePattern(ctx, p); err != nil {
			failed("pattern", p.ID, err)
		}
	}
	for _, a := range res.Anomalies {
		if err := o.Store.SaveAnomaly(ctx, a); err != nil {
			failed("anomaly", a.ID, err)
		}
	}
}
