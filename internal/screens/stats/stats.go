// Package stats renders overall and per-category progress over the whole
// catalog.
package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/router"
	"github.com/kihon/kuiz/internal/screen"
	"github.com/kihon/kuiz/internal/ui/components"
	"github.com/kihon/kuiz/internal/ui/layout"
	"github.com/kihon/kuiz/internal/ui/theme"
)

type statsLoadedMsg struct {
	Stats progress.Stats
	Err   error
}

// StatsScreen shows answer counts, accuracy and mastery per category.
type StatsScreen struct {
	deps   screen.Deps
	stats  progress.Stats
	loaded bool
	errMsg string
}

var _ screen.Screen = (*StatsScreen)(nil)
var _ screen.KeyHintProvider = (*StatsScreen)(nil)

// New creates a new StatsScreen.
func New(deps screen.Deps) *StatsScreen {
	return &StatsScreen{deps: deps}
}

func (s *StatsScreen) Init() tea.Cmd {
	deps := s.deps
	if deps.Catalog == nil || deps.Runner == nil {
		return func() tea.Msg { return statsLoadedMsg{Err: errors.New("no catalog configured")} }
	}
	state := deps.Runner.State().Clone()
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		qs, err := deps.Catalog(ctx)
		if err != nil {
			return statsLoadedMsg{Err: err}
		}
		return statsLoadedMsg{Stats: progress.ComputeStats(state, qs, time.Now())}
	}
}

func (s *StatsScreen) Title() string {
	return "Stats"
}

func (s *StatsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "戻る"},
	}
}

func (s *StatsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.stats = msg.Stats
	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc", "enter", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *StatsScreen) View(width, height int) string {
	if s.errMsg != "" {
		return theme.Centered(theme.Incorrect, width, fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return theme.Centered(theme.Dimmed, width, "\n\n読み込んでいます...")
	}

	st := s.stats
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Centered(theme.Title, width, "学習状況"))
	b.WriteString("\n\n")

	overall := []string{
		fmt.Sprintf("総回答数 %d    正解数 %d    正答率 %.1f%%", st.TotalAnswers, st.TotalCorrect, st.Accuracy*100),
		fmt.Sprintf("問題数 %d    回答済み %d    習得 %d    復習待ち %d", st.TotalQuestions, st.Attempted, st.Mastered, st.Due),
	}
	b.WriteString(components.CenterBlock(width, components.Card(
		theme.Body.Render(strings.Join(overall, "\n"))+"\n\n"+
			components.RateBars(cw-6,
				components.RateBar{Label: "正答率", Num: st.TotalCorrect, Den: st.TotalAnswers},
				components.RateBar{Label: "合格率", Num: st.TotalCorrect, Den: st.TotalQuestions},
				components.RateBar{Label: "習得率", Num: st.Mastered, Den: st.TotalQuestions},
			),
		cw)))
	b.WriteString("\n\n")

	for _, cs := range st.Categories {
		if cs.Questions == 0 {
			continue
		}
		header := theme.Selected.Render(string(cs.Category)) +
			theme.Dimmed.Render(fmt.Sprintf("  %d問 / 回答済み %d / 習得 %d", cs.Questions, cs.Attempted, cs.Mastered))
		bar := components.RateBar{Num: cs.Mastered, Den: cs.Questions}.View(cw-6, 0)
		b.WriteString(components.CenterBlock(width, components.Card(header+"\n"+bar, cw)))
		b.WriteString("\n")
	}
	return b.String()
}
