package session

import (
	"strconv"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/router"
	"github.com/kihon/kuiz/internal/screen"
	"github.com/kihon/kuiz/internal/screens/summary"
	sess "github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/ui/components"
	"github.com/kihon/kuiz/internal/ui/layout"
)

// SessionScreen implements screen.Screen for the active session.
type SessionScreen struct {
	deps    screen.Deps
	opts    sess.Options
	spinner spinner.Model

	ctx     *sess.Context
	origin  catalog.Origin
	choices components.Choices

	// seq is bumped on every presented question.
	seq         int
	overlay     bool
	confirmQuit bool
	status      string
	errMsg      string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.EscapeHandler = (*SessionScreen)(nil)

// New creates a session screen that loads a batch selected by opts.
func New(deps screen.Deps, opts sess.Options) *SessionScreen {
	return &SessionScreen{
		deps:    deps,
		opts:    opts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(s.spinner.Tick, s.loadBatch())
}

func (s *SessionScreen) Title() string {
	return "Session"
}

func (s *SessionScreen) HandlesEscape() bool {
	return s.ctx != nil && !s.ctx.Phase.Terminal()
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "" || s.ctx == nil:
		return nil
	case s.confirmQuit:
		return hints(keys.Confirm, keys.Decline)
	}
	switch s.ctx.Phase {
	case sess.PhaseAwaitingAnswer:
		return hints(keys.Choose, keys.Pass, keys.Pause, keys.Explain, keys.Mode, keys.Quit)
	case sess.PhaseAnswered:
		return hints(keys.Next, keys.Pause, keys.Quit)
	case sess.PhasePaused:
		return []layout.KeyHint{{Key: "Space", Description: "再開"}, {Key: "Q", Description: "終了"}}
	}
	return hints(keys.Pause, keys.Quit)
}

func hints(bindings ...key.Binding) []layout.KeyHint {
	out := make([]layout.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, layout.KeyHint{Key: h.Key, Description: h.Desc})
	}
	return out
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case batchLoadedMsg:
		return s.handleLoaded(msg)

	case advanceMsg:
		return s.handleAdvance(msg)

	case clockTickMsg:
		if s.ctx == nil || s.ctx.Phase.Terminal() {
			return s, nil
		}
		return s, clockTick()

	case screen.SyncDoneMsg:
		s.status = screen.SyncStatus(msg)
		return s, nil

	case spinner.TickMsg:
		if s.ctx != nil || s.errMsg != "" {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

// loadBatch fetches the session's questions off the update loop.
func (s *SessionScreen) loadBatch() tea.Cmd {
	deps := s.deps
	q := deps.Query
	q.WrongOnly = s.opts.WrongOnly
	q.AvoidCorrect = s.opts.AvoidCorrect
	q.Random = s.opts.RandomOrder
	if s.opts.Limit > 0 {
		q.Limit = s.opts.Limit
	}
	return func() tea.Msg {
		if deps.Loader == nil {
			return batchLoadedMsg{Err: catalog.ErrUnavailable}
		}
		ctx, cancel := deps.Context()
		defer cancel()
		batch, err := deps.Loader.Load(ctx, q)
		return batchLoadedMsg{Batch: batch, Err: err}
	}
}

func (s *SessionScreen) handleLoaded(msg batchLoadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.deps.Log().Error("load question batch", "error", msg.Err)
		s.errMsg = catalog.ErrUnavailable.Error()
		return s, nil
	}
	s.origin = msg.Batch.Origin

	runner := s.deps.Runner
	queue := sess.QueueFromBatch(msg.Batch, runner.State(), s.opts, nil)
	ctx, cancel := s.deps.Context()
	defer cancel()
	s.ctx = runner.Start(ctx, queue)
	s.deps.Log().Info("session started", "session", s.ctx.ID, "questions", len(queue), "origin", s.origin)

	if s.ctx.Phase == sess.PhaseComplete {
		return s, nil
	}
	s.present()
	return s, clockTick()
}

// present resets per-question view state for the question at the cursor.
func (s *SessionScreen) present() {
	s.seq++
	s.overlay = false
	rec := s.deps.Runner.State().Record(s.ctx.Current().ID)
	missed := make(map[int]bool)
	for i, orig := range s.ctx.DisplayOrder {
		if rec.ChoseWrong(orig) {
			missed[i] = true
		}
	}
	s.choices = components.Choices{
		Options: s.ctx.DisplayedOptions(),
		Missed:  missed,
		Chosen:  -1,
	}
}

func (s *SessionScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.errMsg != "" || (s.ctx != nil && s.ctx.Phase == sess.PhaseComplete && len(s.ctx.Results) == 0) {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.ctx == nil {
		return s, nil
	}

	if s.confirmQuit {
		switch {
		case key.Matches(msg, keys.Confirm):
			s.confirmQuit = false
			return s.quit()
		case key.Matches(msg, keys.Decline):
			s.confirmQuit = false
		}
		return s, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		s.confirmQuit = true
		return s, nil
	case key.Matches(msg, keys.Pause):
		return s.togglePause()
	case key.Matches(msg, keys.Mode):
		s.toggleMode()
		return s, nil
	}

	switch s.ctx.Phase {
	case sess.PhaseAwaitingAnswer:
		return s.handleAnswerKey(msg)
	case sess.PhaseAnswered:
		if key.Matches(msg, keys.Next) {
			return s.advance()
		}
	}
	return s, nil
}

func (s *SessionScreen) handleAnswerKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Choose):
		n, _ := strconv.Atoi(msg.String())
		if n < 1 || n > len(s.choices.Options) {
			return s, nil
		}
		return s.submit(n - 1)
	case key.Matches(msg, keys.Submit):
		return s.submit(s.choices.Cursor)
	case key.Matches(msg, keys.Up):
		s.choices.Move(-1)
	case key.Matches(msg, keys.Down):
		s.choices.Move(1)
	case key.Matches(msg, keys.Pass):
		return s.pass()
	case key.Matches(msg, keys.Explain):
		p := s.deps.Runner.Policy()
		p.Explain = !p.Explain
		s.deps.Runner.SetPolicy(p)
	}
	return s, nil
}

// toggleMode switches between fast and manual advance. The explain
// setting is kept.
func (s *SessionScreen) toggleMode() {
	cur := s.deps.Runner.Policy()
	mode := sess.ModeManual
	if cur.Mode == sess.ModeManual {
		mode = sess.ModeFast
	}
	p := sess.DefaultPolicy(mode)
	p.Explain = cur.Explain
	s.deps.Runner.SetPolicy(p)
}

func (s *SessionScreen) submit(displayIndex int) (screen.Screen, tea.Cmd) {
	ctx, cancel := s.deps.Context()
	defer cancel()
	out, err := s.deps.Runner.Submit(ctx, s.ctx, displayIndex)
	if err != nil {
		s.deps.Log().Warn("submit answer", "error", err)
		return s, nil
	}
	s.choices.Answered = true
	s.choices.Chosen = displayIndex
	s.choices.Correct = s.ctx.DisplayIndexOf(out.Question.Answer)
	s.overlay = out.ShowExplanation
	return s, s.scheduleAdvance(out.Delay)
}

func (s *SessionScreen) pass() (screen.Screen, tea.Cmd) {
	ctx, cancel := s.deps.Context()
	defer cancel()
	out, err := s.deps.Runner.Pass(ctx, s.ctx)
	if err != nil {
		s.deps.Log().Warn("pass question", "error", err)
		return s, nil
	}
	s.choices.Answered = true
	s.choices.Chosen = -1
	s.choices.Correct = s.ctx.DisplayIndexOf(out.Question.Answer)
	return s, s.scheduleAdvance(out.Delay)
}

func (s *SessionScreen) scheduleAdvance(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	seq := s.seq
	return tea.Tick(d, func(time.Time) tea.Msg { return advanceMsg{Seq: seq} })
}

func (s *SessionScreen) handleAdvance(msg advanceMsg) (screen.Screen, tea.Cmd) {
	if s.ctx == nil || msg.Seq != s.seq || s.ctx.Phase != sess.PhaseAdvancing {
		return s, nil
	}
	return s.advance()
}

func (s *SessionScreen) advance() (screen.Screen, tea.Cmd) {
	ctx, cancel := s.deps.Context()
	defer cancel()
	if err := s.deps.Runner.Advance(ctx, s.ctx); err != nil {
		s.deps.Log().Warn("advance", "error", err)
		return s, nil
	}
	if s.ctx.Phase == sess.PhaseComplete {
		return s, s.finish()
	}
	s.present()
	return s, nil
}

func (s *SessionScreen) togglePause() (screen.Screen, tea.Cmd) {
	ctx, cancel := s.deps.Context()
	defer cancel()
	runner := s.deps.Runner

	if s.ctx.Phase == sess.PhasePaused {
		if err := runner.Resume(ctx, s.ctx); err != nil {
			return s, nil
		}
		s.status = ""
		cmds := []tea.Cmd{clockTick()}
		if s.ctx.Phase == sess.PhaseAdvancing && s.ctx.Last != nil {
			cmds = append(cmds, s.scheduleAdvance(s.ctx.Last.Delay))
		}
		return s, tea.Batch(cmds...)
	}

	if err := runner.Pause(ctx, s.ctx); err != nil {
		return s, nil
	}
	s.status = "一時停止しました"
	return s, s.deps.SyncCmd()
}

func (s *SessionScreen) quit() (screen.Screen, tea.Cmd) {
	ctx, cancel := s.deps.Context()
	defer cancel()
	if err := s.deps.Runner.Quit(ctx, s.ctx); err != nil {
		s.deps.Log().Warn("quit session", "error", err)
	}
	return s, s.finish()
}

// finish replaces the session with its summary and flushes results.
func (s *SessionScreen) finish() tea.Cmd {
	sum := sess.BuildSummary(s.ctx, time.Now())
	s.deps.Log().Info("session ended", "session", s.ctx.ID, "phase", s.ctx.Phase,
		"answered", sum.Answered, "correct", sum.Correct, "passed", sum.Passed)

	next := summary.New(sum, s.deps)
	return tea.Sequence(
		func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} },
		s.deps.SyncCmd(),
	)
}

// clockTick returns a 1-second tick command.
func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}
