package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/quiz"
	"github.com/kihon/kuiz/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run a practice session in line mode",
	Long: "Run a practice session on standard input and output without the full-screen UI.\n" +
		"Answer with the option number, p to pass or q to quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		policy, err := sessionPolicy(cmd)
		if err != nil {
			return err
		}
		e.runner.SetPolicy(policy)

		flags := cmd.Flags()
		opts := session.Options{Limit: e.batchLimit(cmd)}
		opts.WrongOnly, _ = flags.GetBool("wrong-only")
		opts.AvoidCorrect, _ = flags.GetBool("avoid-correct")
		opts.RandomOrder, _ = flags.GetBool("random")

		ctx := cmd.Context()
		batch, err := e.loader().Load(ctx, catalog.Query{
			UserID:       e.cfg.UserID,
			Limit:        opts.Limit,
			WrongOnly:    opts.WrongOnly,
			AvoidCorrect: opts.AvoidCorrect,
			Random:       opts.RandomOrder,
		})
		if err != nil {
			e.logger.Error("load question batch", "error", err)
			return catalog.ErrUnavailable
		}
		e.logger.Info("batch loaded", "origin", batch.Origin, "questions", len(batch.Questions))

		queue := session.QueueFromBatch(batch, e.runner.State(), opts, nil)
		return playSession(ctx, e.runner, queue, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	addSessionFlags(playCmd)
	f := playCmd.Flags()
	f.Bool("wrong-only", false, "Only questions answered wrongly and never correctly")
	f.Bool("avoid-correct", false, "Skip questions answered correctly before")
	f.Bool("random", false, "Shuffle the questions")
}

// playSession runs one session over queue, reading answers line by line.
// End of input quits the session.
func playSession(ctx context.Context, runner *session.Runner, queue []quiz.Question, in io.Reader, out io.Writer) error {
	c := runner.Start(ctx, queue)
	if c.Phase == session.PhaseComplete {
		fmt.Fprintln(out, "no questions in session")
		return nil
	}

	scanner := bufio.NewScanner(in)
	for !c.Phase.Terminal() {
		q := c.Current()
		fmt.Fprintf(out, "\n[%d/%d] %s\n%s\n", c.Cursor+1, len(c.Queue), q.Category, q.Text)
		for i, opt := range c.DisplayedOptions() {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}

		outcome, done, err := readAnswer(ctx, runner, c, scanner, out)
		if err != nil {
			return err
		}
		if done {
			break
		}
		printOutcome(out, outcome)
		if err := runner.Advance(ctx, c); err != nil {
			return err
		}
	}

	printSummary(out, session.BuildSummary(c, time.Now()))
	n, err := runner.Sync(ctx)
	switch {
	case err != nil:
		fmt.Fprintln(out, "結果の送信に失敗しました (次回再送します)")
	case n > 0:
		fmt.Fprintf(out, "%d件の結果を送信しました\n", n)
	}
	return nil
}

// readAnswer prompts until the learner answers, passes or quits. done is
// true when the session was quit.
func readAnswer(ctx context.Context, runner *session.Runner, c *session.Context, scanner *bufio.Scanner, out io.Writer) (session.Outcome, bool, error) {
	n := len(c.DisplayOrder)
	for {
		fmt.Fprintf(out, "回答 (1-%d, p=パス, q=終了): ", n)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return session.Outcome{}, true, runner.Quit(ctx, c)
		}
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch line {
		case "q", "quit":
			return session.Outcome{}, true, runner.Quit(ctx, c)
		case "p", "pass":
			o, err := runner.Pass(ctx, c)
			return o, false, err
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > n {
			fmt.Fprintf(out, "1から%dの番号を入力してください\n", n)
			continue
		}
		o, err := runner.Submit(ctx, c, choice-1)
		return o, false, err
	}
}

func printOutcome(out io.Writer, o session.Outcome) {
	switch {
	case o.Passed():
		fmt.Fprintln(out, "→ パス")
	case o.Correct:
		fmt.Fprintln(out, "○ 正解")
	default:
		fmt.Fprintf(out, "× 不正解  正解: %s\n", o.Question.CorrectOption())
	}
	if o.ShowExplanation {
		text := o.Question.ExplanationText()
		if text == "" {
			text = quiz.NoExplanation
		}
		fmt.Fprintf(out, "解説: %s\n", text)
	}
}

func printSummary(out io.Writer, s *session.Summary) {
	title := "セッションが完了しました"
	if s.Quit {
		title = "セッションを終了しました"
	}
	fmt.Fprintf(out, "\n%s\n", title)
	fmt.Fprintf(out, "出題 %d  正解 %d  不正解 %d  パス %d  正答率 %.0f%%\n",
		s.Questions, s.Correct, s.Wrong, s.Passed, s.Accuracy*100)
	for _, cr := range s.Categories {
		fmt.Fprintf(out, "  %s  %d/%d\n", cr.Category, cr.Correct, cr.Answered)
	}
}
