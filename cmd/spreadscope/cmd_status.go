package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spreadscope/internal/cmdlog"
	"spreadscope/internal/model"
	"spreadscope/internal/store"
)

type statusView struct {
	ID      string          `json:"id"`
	TweetID string          `json:"tweet_id,omitempty"`
	Status  string          `json:"status,omitempty"`
	Error   string          `json:"error,omitempty"`
	Summary json.RawMessage `json:"summary,omitempty"`

	// set with --full
	Nodes     []model.NetworkNode         `json:"nodes,omitempty"`
	Patterns  []model.CoordinationPattern `json:"patterns,omitempty"`
	Anomalies []model.Anomaly             `json:"anomalies,omitempty"`
	// set with --account
	BotSignals []model.BotSignal `json:"bot_signals,omitempty"`
}

// loadStored reads back the persisted detector results of an analysis.
func loadStored(ctx context.Context, db *store.DB, view *statusView, full bool, accountID string) error {
	var err error
	if full {
		if view.Nodes, err = db.Nodes(ctx, view.ID); err != nil {
			return fmt.Errorf("nodes: %w", err)
		}
		if view.Patterns, err = db.Patterns(ctx, view.ID); err != nil {
			return fmt.Errorf("patterns: %w", err)
		}
		if view.Anomalies, err = db.Anomalies(ctx, view.ID); err != nil {
			return fmt.Errorf("anomalies: %w", err)
		}
	}
	if accountID != "" {
		if view.BotSignals, err = db.BotSignals(ctx, accountID); err != nil {
			return fmt.Errorf("bot signals: %w", err)
		}
	}
	return nil
}

func newStatusCmd(g *globalFlags) *cobra.Command {
	var (
		id        string
		full      bool
		accountID string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status and summary of an analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("status", func() error {
				e, err := loadEnv(g)
				if err != nil {
					return err
				}
				defer e.Close()
				ctx := cmd.Context()
				e.openCache(ctx)

				view := statusView{ID: id}
				if e.cache != nil {
					if ok, err := e.cache.GetSummary(ctx, id, &view.Summary); err != nil {
						e.logger.WithError(err).Warn("cache_read")
					} else if ok {
						e.logger.WithField("analysis_id", id).Debug("summary_cache_hit")
					}
				}
				if err := e.openStore(); err != nil {
					return err
				}
				a, err := e.db.GetAnalysis(ctx, id)
				switch {
				case errors.Is(err, store.ErrNotFound) && len(view.Summary) > 0:
					// summary outlived the database record
				case err != nil:
					return err
				default:
					view.TweetID, view.Status, view.Error = a.TweetID, string(a.Status), a.Error
					if len(view.Summary) == 0 && a.Summary != "" {
						view.Summary = json.RawMessage(a.Summary)
					}
				}
				if err := loadStored(ctx, e.db, &view, full, accountID); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "analysis id")
	cmd.Flags().BoolVar(&full, "full", false, "include stored graph nodes, patterns and anomalies")
	cmd.Flags().StringVar(&accountID, "account", "", "include stored bot signals for this account")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newNeighborsCmd(g *globalFlags) *cobra.Command {
	var (
		id        string
		accountID string
		hops      int
	)
	cmd := &cobra.Command{
		Use:   "neighbors",
		Short: "List accounts connected to an account in a stored propagation graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("neighbors", func() error {
				e, err := loadEnv(g)
				if err != nil {
					return err
				}
				defer e.Close()
				if err := e.openStore(); err != nil {
					return err
				}
				var ids []string
				if hops == 1 {
					ids, err = e.db.Neighbors(cmd.Context(), id, accountID)
				} else {
					ids, err = e.db.Reachable(cmd.Context(), id, accountID, hops)
				}
				if err != nil {
					return err
				}
				for _, n := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "analysis id")
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().IntVar(&hops, "hops", 1, "max hops (0 = unbounded)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
