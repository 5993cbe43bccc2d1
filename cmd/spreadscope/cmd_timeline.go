package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"spreadscope/internal/analytics"
	"spreadscope/internal/cmdlog"
	"spreadscope/internal/model"
)

func newTimelineCmd() *cobra.Command {
	var (
		datasetPath string
		width       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show cascade activity per interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("timeline", func() error {
				ds, err := readDataset(datasetPath)
				if err != nil {
					return err
				}
				buckets := analytics.Activity(model.Timeline(ds), width)
				w := cmd.OutOrStdout()
				for _, b := range buckets {
					types := make([]string, 0, len(b.Counts))
					for t := range b.Counts {
						types = append(types, string(t))
					}
					sort.Strings(types)
					fmt.Fprintf(w, "%s total=%d", b.Start.Format(time.RFC3339), b.Total)
					for _, t := range types {
						fmt.Fprintf(w, " %s=%d", t, b.Counts[model.EventType(t)])
					}
					fmt.Fprintln(w)
				}
				if p, ok := analytics.Peak(buckets); ok {
					fmt.Fprintf(w, "peak %s (%d events)\n", p.Start.Format(time.RFC3339), p.Total)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset JSON file (- for stdin)")
	cmd.Flags().DurationVar(&width, "interval", time.Hour, "bucket width")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
