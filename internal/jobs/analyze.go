package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"spreadscope/internal/analysis"
	"spreadscope/internal/logging"
	"spreadscope/internal/model"
	"spreadscope/internal/store"
)

// Queue is the analysis table as the worker sees it.
type Queue interface {
	ListPending(ctx context.Context, limit int) ([]store.Analysis, error)
	UpdateAnalysisStatus(ctx context.Context, id string, status model.AnalysisStatus, summary any, errMsg string) error
}

type Collector interface {
	Collect(ctx context.Context, tweetID string, limit int) (model.SpreadDataset, error)
}

type Runner interface {
	Run(ctx context.Context, analysisID string, ds model.SpreadDataset) (*analysis.Result, error)
}

// Worker drains pending analyses: collect the seed tweet, then run the pipeline.
type Worker struct {
	Queue     Queue
	Collector Collector
	Runner    Runner
	BatchSize int
	Limit     int // per-list collection limit
	Logger    *logrus.Logger
}

// RunPendingOnce processes one batch of pending analyses and returns how many
// completed. A failing analysis is marked failed and does not stop the batch.
func (w *Worker) RunPendingOnce(ctx context.Context) (int, error) {
	log := logging.Or(w.Logger)
	batch := w.BatchSize
	if batch <= 0 {
		batch = 1
	}
	pending, err := w.Queue.ListPending(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	done := 0
	for _, a := range pending {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		entry := log.WithFields(logrus.Fields{"analysis_id": a.ID, "tweet_id": a.TweetID})
		ds, err := w.Collector.Collect(ctx, a.TweetID, w.Limit)
		if err != nil {
			entry.WithError(err).Error("collect_failed")
			if serr := w.Queue.UpdateAnalysisStatus(ctx, a.ID, model.StatusFailed, nil, err.Error()); serr != nil {
				entry.WithError(serr).Error("analysis_status_write")
			}
			continue
		}
		if _, err := w.Runner.Run(ctx, a.ID, ds); err != nil {
			// the runner has already recorded the failure
			entry.WithError(err).Error("analysis_run_failed")
			continue
		}
		done++
	}
	if len(pending) > 0 {
		log.WithFields(logrus.Fields{"picked": len(pending), "completed": done}).Info("worker_batch")
	}
	return done, nil
}

// DefaultPollInterval is used when RunLoop is given a non-positive interval.
const DefaultPollInterval = 30 * time.Second

// RunLoop runs RunPendingOnce on a ticker until ctx is cancelled.
func (w *Worker) RunLoop(ctx context.Context, interval time.Duration) error {
	log := logging.Or(w.Logger)
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if _, err := w.RunPendingOnce(ctx); err != nil {
		log.WithError(err).Error("worker_once_error")
	}
	for {
		select {
		case <-ctx.Done():
			log.Info("worker_loop_stop")
			return ctx.Err()
		case <-t.C:
			if _, err := w.RunPendingOnce(ctx); err != nil {
				log.WithError(err).Error("worker_once_error")
			}
		}
	}
}
