package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/kihon/kuiz/internal/router"
	"github.com/kihon/kuiz/internal/screen"
	"github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/ui/layout"
	"github.com/kihon/kuiz/internal/ui/theme"
)

// maxMissed caps the missed questions listed below the table.
const maxMissed = 8

// SummaryScreen displays the session summary.
type SummaryScreen struct {
	summary *session.Summary
	deps    screen.Deps
	status  string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *session.Summary, deps screen.Deps) *SummaryScreen {
	return &SummaryScreen{summary: summary, deps: deps, status: "結果を送信しています..."}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "メニューへ"},
		{Key: "R", Description: "再送信"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.SyncDoneMsg:
		s.status = screen.SyncStatus(msg)
	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter", "esc":
			// The session screen was replaced, so one pop returns home.
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "r":
			s.status = "結果を送信しています..."
			return s, s.deps.SyncCmd()
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder

	title := "セッションが完了しました"
	if sum.Quit {
		title = "セッションを終了しました"
	}
	b.WriteString(theme.Centered(theme.Title, width, title))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(theme.Centered(theme.Dimmed, width, fmt.Sprintf("所要時間 %d:%02d", mins, secs)))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("出題 %d    正解 %d    不正解 %d    パス %d    正答率 %.0f%%",
		sum.Questions, sum.Correct, sum.Wrong, sum.Passed, sum.Accuracy*100)
	b.WriteString(theme.Centered(theme.Body, width, statsLine))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", max(min(width-8, 60), 0)))

	if len(sum.Categories) > 0 {
		b.WriteString(theme.Centered(theme.Dimmed, width, "分野別"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		for _, cr := range sum.Categories {
			line := fmt.Sprintf("%-12s  %d/%d 正解", cr.Category, cr.Correct, cr.Answered)
			if cr.Passed > 0 {
				line += fmt.Sprintf("  (パス %d)", cr.Passed)
			}
			style := theme.Body
			if cr.Answered > 0 && cr.Correct == cr.Answered {
				style = theme.Correct
			}
			b.WriteString(theme.Centered(style, width, line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(sum.Missed) > 0 {
		b.WriteString(theme.Centered(theme.Dimmed, width, "間違えた問題"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		textWidth := max(min(width-8, 60), 10)
		for i, q := range sum.Missed {
			if i == maxMissed {
				b.WriteString(theme.Centered(theme.Dimmed, width,
					fmt.Sprintf("ほか %d 問", len(sum.Missed)-maxMissed)))
				b.WriteString("\n")
				break
			}
			line := truncate(q.Text, textWidth-4) + "  → " + q.CorrectOption()
			b.WriteString(theme.Centered(theme.Incorrect, width, truncate(line, textWidth)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if s.status != "" {
		b.WriteString(theme.Centered(theme.Hint, width, s.status))
	}
	return b.String()
}

// truncate shortens s to at most w display cells.
func truncate(s string, w int) string {
	if lipgloss.Width(s) <= w {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > w-1 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "…"
}
