package home

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/router"
	"github.com/kihon/kuiz/internal/screen"
	"github.com/kihon/kuiz/internal/screens/history"
	sessionscreen "github.com/kihon/kuiz/internal/screens/session"
	"github.com/kihon/kuiz/internal/screens/stats"
	sess "github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/ui/components"
	"github.com/kihon/kuiz/internal/ui/layout"
)

type statsLoadedMsg struct {
	Stats progress.Stats
	Err   error
}

// HomeScreen is the main menu. It starts sessions with the selection
// options toggled here.
type HomeScreen struct {
	deps  screen.Deps
	menu  components.Menu
	opts  sess.Options
	stats *progress.Stats
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps screen.Deps) *HomeScreen {
	h := &HomeScreen{
		deps: deps,
		opts: sess.Options{Limit: deps.Query.Limit},
	}

	items := []components.MenuItem{
		{Label: "START", Action: func() tea.Cmd {
			return h.start(false)
		}},
		{Label: "REVIEW MISSES", Action: func() tea.Cmd {
			return h.start(true)
		}},
		{Label: "STATS", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: stats.New(deps)}
			}
		}},
		{Label: "HISTORY", Disabled: deps.Journal == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(deps.Journal)}
			}
		}},
		{Label: "QUIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) start(wrongOnly bool) tea.Cmd {
	opts := h.opts
	opts.WrongOnly = wrongOnly
	next := sessionscreen.New(h.deps, opts)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

// Refresh reloads the dashboard after a session or reset.
func (h *HomeScreen) Refresh() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	deps := h.deps
	if deps.Catalog == nil || deps.Runner == nil {
		return nil
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

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "選択"},
		{Key: "Enter", Description: "決定"},
		{Key: "A", Description: "正解済みを除外"},
		{Key: "R", Description: "ランダム"},
		{Key: "M", Description: "モード"},
		{Key: "E", Description: "解説"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.Err != nil {
			h.deps.Log().Warn("load catalog for stats", "error", msg.Err)
			return h, nil
		}
		h.stats = &msg.Stats
		return h, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "a":
			h.opts.AvoidCorrect = !h.opts.AvoidCorrect
			return h, nil
		case "r":
			h.opts.RandomOrder = !h.opts.RandomOrder
			return h, nil
		case "m":
			h.toggleMode()
			return h, nil
		case "e":
			if r := h.deps.Runner; r != nil {
				p := r.Policy()
				p.Explain = !p.Explain
				r.SetPolicy(p)
			}
			return h, nil
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) toggleMode() {
	r := h.deps.Runner
	if r == nil {
		return
	}
	cur := r.Policy()
	mode := sess.ModeManual
	if cur.Mode == sess.ModeManual {
		mode = sess.ModeFast
	}
	p := sess.DefaultPolicy(mode)
	p.Explain = cur.Explain
	r.SetPolicy(p)
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.IsCompactHeight(height+8) || width < 100
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, renderStatsBar(h.stats, cw, compact))
	sections = append(sections, renderOptions(h.opts, h.policy(), cw))
	if compact {
		sections = append(sections, renderMenuCompact(h.menu, cw))
	} else {
		sections = append(sections, renderMenu(h.menu, cw))
	}

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) policy() sess.Policy {
	if h.deps.Runner == nil {
		return sess.DefaultPolicy(h.deps.Mode)
	}
	return h.deps.Runner.Policy()
}
