package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/kihon/kuiz/internal/router"
	"github.com/kihon/kuiz/internal/screen"
	"github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/store"
	"github.com/kihon/kuiz/internal/ui/layout"
	"github.com/kihon/kuiz/internal/ui/theme"
)

// sessionLimit bounds the journal events scanned for finished sessions.
const sessionLimit = 200

type historyLoadedMsg struct {
	Sessions []store.SessionRecord
	Err      error
}

type answersLoadedMsg struct {
	SessionID string
	Answers   []store.AnswerRecord
	Err       error
}

// HistoryScreen lists finished sessions and their answers.
type HistoryScreen struct {
	journal  screen.JournalReader
	sessions []store.SessionRecord
	answers  map[string][]store.AnswerRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(journal screen.JournalReader) *HistoryScreen {
	return &HistoryScreen{
		journal:  journal,
		answers:  make(map[string][]store.AnswerRecord),
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	journal := s.journal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), screen.DefaultTimeout)
		defer cancel()

		events, err := journal.QuerySessions(ctx, store.QueryOpts{Limit: sessionLimit})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		var finished []store.SessionRecord
		for _, ev := range events {
			if ev.Action == session.ActionComplete || ev.Action == session.ActionQuit {
				finished = append(finished, ev)
			}
		}
		return historyLoadedMsg{Sessions: finished}
	}
}

func (s *HistoryScreen) loadAnswers(sessionID string) tea.Cmd {
	journal := s.journal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), screen.DefaultTimeout)
		defer cancel()
		answers, err := journal.QueryAnswers(ctx, store.QueryOpts{SessionID: sessionID})
		return answersLoadedMsg{SessionID: sessionID, Answers: answers, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "詳細"},
		{Key: "↑↓", Description: "選択"},
		{Key: "Esc", Description: "戻る"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case answersLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.answers[msg.SessionID] = msg.Answers
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if s.selected >= len(s.sessions) {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			id := s.sessions[s.selected].SessionID
			if _, ok := s.answers[id]; !ok && s.expanded[s.selected] {
				return s, s.loadAnswers(id)
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return theme.Centered(theme.Incorrect, width, fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return theme.Centered(theme.Dimmed, width, "\n\n  履歴を読み込んでいます...")
	}
	if len(s.sessions) == 0 {
		return theme.Centered(theme.Hint, width, "\n\n  まだセッションがありません。")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, rec := range s.sessions {
		dateStr := rec.Timestamp.Local().Format("2006-01-02 15:04")

		var accuracy float64
		if answered := rec.Correct + rec.Wrong; answered > 0 {
			accuracy = float64(rec.Correct) / float64(answered) * 100
		}

		status := "完了"
		if rec.Action == session.ActionQuit {
			status = "中断"
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %s  %d問  正解 %d  不正解 %d  パス %d  %.0f%%",
			prefix, dateStr, status, rec.Questions, rec.Correct, rec.Wrong, rec.Passed, accuracy)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderAnswers(rec.SessionID, width))
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderAnswers(sessionID string, width int) string {
	answers, ok := s.answers[sessionID]
	if !ok {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("    読み込み中...")) + "\n"
	}
	if len(answers) == 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("    回答なし")) + "\n"
	}

	var b strings.Builder
	// Answers come newest first.
	for i := len(answers) - 1; i >= 0; i-- {
		a := answers[i]
		mark, style := "○", theme.Correct
		switch {
		case a.Passed():
			mark, style = "→", theme.Warning
		case !a.Correct:
			mark, style = "×", theme.Incorrect
		}
		line := fmt.Sprintf("    %s %-10s %s  %.1fs", mark, a.QuestionID, a.Category, float64(a.ElapsedMs)/1000)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}
