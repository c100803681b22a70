package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kuiz",
	Short: "Terminal quiz runner for 基本情報 and ITパスポート",
	Long: "kuiz presents multiple-choice exam questions one at a time, tracks per-question\n" +
		"mastery and syncs answer results to the quiz API, a Kafka topic or nowhere.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides KUIZ_DB)")
	pf.String("data", "", "Directory of question JSON files (overrides KUIZ_DATA_DIR)")
	pf.String("progress", "", "Progress backend: sqlite, file, redis or memory (overrides KUIZ_PROGRESS_BACKEND)")
	pf.String("api", "", "Quiz API base URL (overrides KUIZ_API_BASE)")
	pf.String("log-level", "", "Log level: debug, info, warn or error (overrides KUIZ_LOG_LEVEL)")

	addSessionFlags(rootCmd)

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

// addSessionFlags registers the options that shape a session.
func addSessionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("mode", "fast", "Advance mode after an answer: fast or manual")
	f.Bool("explain", false, "Show the explanation after each answer")
	f.Int("limit", 0, "Questions per session (default KUIZ_BATCH_LIMIT)")
}
