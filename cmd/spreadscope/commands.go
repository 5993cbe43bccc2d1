package main

import (
	"github.com/spf13/cobra"

	"spreadscope/internal/theme"
)

// flags shared by every subcommand
type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "spreadscope",
		Short: "Analyze how a post spread across X",
		Long: `spreadscope collects the reposts, quotes and replies of a seed post and
analyzes the resulting cascade for bots, coordination and anomalies.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			theme.PrintBanner(cmd.OutOrStdout())
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "./spreadscope.yaml", "config path")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "sqlite path (overrides storage.dbPath)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides logging.level)")

	root.AddCommand(
		newInitCmd(),
		newAnalyzeCmd(g),
		newCollectCmd(g),
		newEnqueueCmd(g),
		newWorkerCmd(g),
		newStatusCmd(g),
		newNeighborsCmd(g),
		newTimelineCmd(),
	)
	return root
}
