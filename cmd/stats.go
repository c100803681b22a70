package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/progress"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		qs, err := e.localCatalog(ctx)
		if err != nil {
			return err
		}
		st := progress.ComputeStats(e.runner.State(), qs, time.Now())

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		printStats(out, st)

		if e.remote != nil {
			rs, err := e.remote.FetchStats(ctx, e.cfg.UserID)
			if err != nil {
				e.logger.Warn("fetch server stats", "error", err)
				return nil
			}
			fmt.Fprintf(out, "\nServer: %d answers, %d correct (%.1f%%)\n",
				rs.TotalAnswers, rs.CorrectCount, rs.Accuracy*100)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the statistics as JSON")
}

func printStats(out io.Writer, st progress.Stats) {
	fmt.Fprintf(out, "Questions:    %d (attempted %d, mastered %d, due %d)\n",
		st.TotalQuestions, st.Attempted, st.Mastered, st.Due)
	fmt.Fprintf(out, "Answers:      %d (correct %d)\n", st.TotalAnswers, st.TotalCorrect)
	fmt.Fprintf(out, "Accuracy:     %.1f%%\n", st.Accuracy*100)
	fmt.Fprintf(out, "Pass rate:    %.1f%%\n", st.PassRate*100)
	fmt.Fprintf(out, "Mastery rate: %.1f%%\n", st.MasteryRate*100)
	for _, cs := range st.Categories {
		fmt.Fprintf(out, "  %-12s %4d questions  %4d attempted  %4d mastered  %5.1f%%\n",
			cs.Category, cs.Questions, cs.Attempted, cs.Mastered, cs.PassRate*100)
	}
}
