package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"spreadscope/internal/analysis"
	"spreadscope/internal/cmdlog"
	"spreadscope/internal/collect"
	"spreadscope/internal/jobs"
	"spreadscope/internal/metrics"
)

func (e *env) collector() *collect.Collector {
	c := collect.New(e.xClient(), nil, e.logger)
	if e.cache != nil {
		c.Cache = e.cache
	}
	return c
}

func newCollectCmd(g *globalFlags) *cobra.Command {
	var (
		tweetID string
		limit   int
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the cascade of a post and print it as a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("collect", func() error {
				e, err := loadEnv(g)
				if err != nil {
					return err
				}
				defer e.Close()
				e.openCache(cmd.Context())
				if limit <= 0 {
					limit = e.cfg.Collector.Limit
				}
				ds, err := e.collector().Collect(cmd.Context(), tweetID, limit)
				if err != nil {
					return err
				}
				if outPath == "" {
					return writeJSON(cmd.OutOrStdout(), ds)
				}
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				return writeJSON(f, ds)
			})
		},
	}
	cmd.Flags().StringVar(&tweetID, "tweet", "", "seed tweet id")
	cmd.Flags().IntVar(&limit, "limit", 0, "max items per list (default: collector.limit)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the dataset to this file instead of stdout")
	_ = cmd.MarkFlagRequired("tweet")
	return cmd
}

func newEnqueueCmd(g *globalFlags) *cobra.Command {
	var tweetID string
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a post for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("enqueue", func() error {
				e, err := loadEnv(g)
				if err != nil {
					return err
				}
				defer e.Close()
				if err := e.openStore(); err != nil {
					return err
				}
				id := uuid.NewString()
				if err := e.db.CreateAnalysis(cmd.Context(), id, tweetID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tweetID, "tweet", "", "seed tweet id")
	_ = cmd.MarkFlagRequired("tweet")
	return cmd
}

func newWorkerCmd(g *globalFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Collect and analyze queued posts until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("worker", func() error {
				e, err := loadEnv(g)
				if err != nil {
					return err
				}
				defer e.Close()
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				if err := e.openStore(); err != nil {
					return err
				}
				e.openCache(ctx)
				metrics.StartServer(e.cfg.Metrics.Addr)

				o := analysis.New(e.db, nil, e.logger)
				o.HighConfidence = e.cfg.Detection.HighConfidence
				if e.cache != nil {
					o.Cache = e.cache
				}
				w := &jobs.Worker{
					Queue:     e.db,
					Collector: e.collector(),
					Runner:    o,
					BatchSize: e.cfg.Worker.BatchSize,
					Limit:     e.cfg.Collector.Limit,
					Logger:    e.logger,
				}
				if once {
					n, err := w.RunPendingOnce(ctx)
					fmt.Fprintf(cmd.OutOrStdout(), "completed %d\n", n)
					return err
				}
				err = w.RunLoop(ctx, e.cfg.Worker.PollInterval)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "process one batch and exit")
	return cmd
}
