package session

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/kihon/kuiz/internal/quiz"
	sess "github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/ui/components"
	"github.com/kihon/kuiz/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.ctx == nil:
		return s.renderLoading(width)
	case s.ctx.Phase == sess.PhaseComplete && len(s.ctx.Results) == 0:
		return renderEmpty(width)
	case s.confirmQuit:
		return renderQuitConfirm(width)
	}
	return s.renderQuestionView(width)
}

// renderQuestionView renders the active question display.
func (s *SessionScreen) renderQuestionView(width int) string {
	c := s.ctx
	q := c.Current()
	if q == nil {
		return ""
	}

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  %s", q.Category))

	policy := s.deps.Runner.Policy()
	flags := policy.Mode.String()
	if policy.Explain {
		flags += "+explain"
	}
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Q %d/%d  %s %d  %s %d  %s %d  %s  %s",
			c.Cursor+1, len(c.Queue),
			theme.Correct.Render("○"), c.Correct,
			theme.Incorrect.Render("×"), c.Wrong,
			theme.Warning.Render("→"), c.Passed,
			flags,
			s.timer(),
		))

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(theme.Dimmed.Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	textWidth := min(width-8, 76)
	b.WriteString(components.CenterBlock(width, theme.Body.Bold(true).Width(textWidth).Render(q.Text)))
	b.WriteString("\n\n")
	b.WriteString(components.CenterBlock(width, s.choices.View(textWidth)))
	b.WriteString("\n")

	if c.Phase == sess.PhasePaused {
		b.WriteString(theme.Centered(theme.Warning, width, "一時停止中 (Space で再開)"))
		b.WriteString("\n")
	} else if last := c.Last; last != nil && s.choices.Answered {
		b.WriteString(renderFeedback(width, last))
		b.WriteString("\n")
	}

	if s.overlay {
		b.WriteString("\n")
		text := q.ExplanationText()
		if text == "" {
			text = quiz.NoExplanation
		}
		box := components.Card(theme.Hint.Render("解説")+"\n"+theme.Body.Render(text), textWidth)
		b.WriteString(components.CenterBlock(width, box))
		b.WriteString("\n")
	}

	if s.status != "" {
		b.WriteString("\n")
		b.WriteString(theme.Centered(theme.Dimmed, width, s.status))
	}
	return b.String()
}

// timer shows the time spent on the current question.
func (s *SessionScreen) timer() string {
	d := time.Since(s.ctx.QuestionStart)
	if s.ctx.Phase != sess.PhaseAwaitingAnswer || d < 0 {
		d = 0
	}
	if s.ctx.Last != nil && s.choices.Answered {
		d = s.ctx.Last.Elapsed
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func renderFeedback(width int, out *sess.Outcome) string {
	switch {
	case out.Passed():
		return theme.Centered(theme.Warning, width, "パス")
	case out.Correct:
		return theme.Centered(theme.Correct, width, "正解")
	}
	return theme.Centered(theme.Incorrect, width, "不正解") + "\n" +
		theme.Centered(theme.Dimmed, width, "正解: "+out.Question.CorrectOption())
}

// renderQuitConfirm renders the quit confirmation dialog.
func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(theme.Centered(theme.Body.Bold(true), width, "セッションを終了しますか?"))
	b.WriteString("\n")
	b.WriteString(theme.Centered(theme.Dimmed, width, "回答済みの結果は保存されます。"))
	b.WriteString("\n\n")
	b.WriteString(theme.Centered(theme.Correct, width, "[Y] 終了する"))
	b.WriteString("\n")
	b.WriteString(theme.Centered(theme.Selected, width, "[N] 続ける"))
	return b.String()
}

// renderLoading renders the loading state.
func (s *SessionScreen) renderLoading(width int) string {
	return theme.Centered(theme.Dimmed, width, "\n\n\n"+s.spinner.View()+" 問題を読み込んでいます...")
}

func renderEmpty(width int) string {
	return theme.Centered(theme.Dimmed, width,
		"\n\n\n出題できる問題がありません (no questions in session)\n\n何かキーを押すと戻ります。")
}

// renderError renders an error message.
func renderError(width int, errMsg string) string {
	return theme.Centered(theme.Incorrect, width,
		fmt.Sprintf("\n\n\nError: %s\n\n何かキーを押すと戻ります。", errMsg))
}
