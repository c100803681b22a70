package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past sessions, or the answers of one session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		limit, _ := cmd.Flags().GetInt("limit")

		if id, _ := cmd.Flags().GetString("session"); id != "" {
			answers, err := e.store.QueryAnswers(ctx, store.QueryOpts{SessionID: id, Limit: limit})
			if err != nil {
				return err
			}
			for i := len(answers) - 1; i >= 0; i-- {
				a := answers[i]
				result := "wrong"
				switch {
				case a.Passed():
					result = "pass"
				case a.Correct:
					result = "correct"
				}
				fmt.Fprintf(out, "%s  %-12s %-10s %-7s %6dms\n",
					a.Timestamp.Local().Format("15:04:05"), a.QuestionID, a.Category, result, a.ElapsedMs)
			}
			return nil
		}

		sessions, err := e.store.QuerySessions(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}
		for _, s := range sessions {
			if s.Action != session.ActionComplete && s.Action != session.ActionQuit {
				continue
			}
			fmt.Fprintf(out, "%s  %s  %-8s  %d questions  %d correct  %d wrong  %d passed\n",
				s.Timestamp.Local().Format("2006-01-02 15:04"), s.SessionID, s.Action,
				s.Questions, s.Correct, s.Wrong, s.Passed)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 50, "Maximum journal entries to read")
	historyCmd.Flags().String("session", "", "Show the answers of this session")
}
