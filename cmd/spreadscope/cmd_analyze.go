package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"spreadscope/internal/analysis"
	"spreadscope/internal/cmdlog"
	"spreadscope/internal/config"
	"spreadscope/internal/model"
	"spreadscope/internal/theme"
)

func newInitCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("init", func() error {
				if err := config.Save(path, config.Default()); err != nil {
					return err
				}
				theme.PrintBanner(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "Config written to:", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "./spreadscope.yaml", "path to write config")
	return cmd
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var (
		datasetPath string
		analysisID  string
		persist     bool
		full        bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run every detector over a collected dataset and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdlog.Run("analyze", func() error {
				e, err := loadEnv(g)
				if err != nil {
					return err
				}
				defer e.Close()
				ds, err := readDataset(datasetPath)
				if err != nil {
					return err
				}
				if analysisID == "" {
					analysisID = uuid.NewString()
				}

				o := analysis.New(nil, nil, e.logger)
				o.HighConfidence = e.cfg.Detection.HighConfidence
				if persist {
					if err := e.openStore(); err != nil {
						return err
					}
					if err := e.db.CreateAnalysis(cmd.Context(), analysisID, ds.Original.ID); err != nil {
						return err
					}
					o.Store = e.db
					e.openCache(cmd.Context())
					if e.cache != nil {
						o.Cache = e.cache
					}
				}

				res, err := o.Run(cmd.Context(), analysisID, ds)
				if err != nil {
					return err
				}
				var out any = res.Summary
				if full {
					out = res
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset JSON file (- for stdin)")
	cmd.Flags().StringVar(&analysisID, "id", "", "analysis id (default: random)")
	cmd.Flags().BoolVar(&persist, "persist", false, "record the analysis and its results in the database")
	cmd.Flags().BoolVar(&full, "full", false, "print the full result instead of the summary")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func readDataset(path string) (model.SpreadDataset, error) {
	var ds model.SpreadDataset
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return ds, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return ds, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
