package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/quiz"
	"github.com/kihon/kuiz/internal/screen"
	sess "github.com/kihon/kuiz/internal/session"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testQuestions(n int) []quiz.Question {
	qs := make([]quiz.Question, n)
	for i := range qs {
		qs[i] = quiz.Question{
			ID:       fmt.Sprintf("q%d", i+1),
			Category: quiz.CategoryBasicIT,
			Text:     fmt.Sprintf("問題 %d", i+1),
			Options:  []string{"ア", "イ", "ウ", "エ"},
			Answer:   i % 4,
		}
	}
	return qs
}

func newTestDeps(mode sess.Mode, loader catalog.Loader) screen.Deps {
	return screen.Deps{
		Runner: sess.NewRunner(sess.Config{Policy: sess.DefaultPolicy(mode)}),
		Loader: loader,
		Query:  catalog.Query{UserID: "demo-user", Limit: 10},
	}
}

func staticLoader(qs []quiz.Question) catalog.Loader {
	return catalog.LoaderFunc(func(context.Context, catalog.Query) (*catalog.Batch, error) {
		return &catalog.Batch{Questions: qs, Origin: catalog.OriginFiles}, nil
	})
}

// newLoadedScreen returns a screen with the batch already delivered.
func newLoadedScreen(t *testing.T, mode sess.Mode, n int) *SessionScreen {
	t.Helper()
	s := New(newTestDeps(mode, staticLoader(testQuestions(n))), sess.Options{})
	scr, _ := s.Update(batchLoadedMsg{Batch: &catalog.Batch{Questions: testQuestions(n), Origin: catalog.OriginFiles}})
	ss := scr.(*SessionScreen)
	if ss.ctx == nil || ss.ctx.Phase != sess.PhaseAwaitingAnswer {
		t.Fatalf("session not started: %+v", ss.ctx)
	}
	return ss
}

// correctKey returns the number key for the current question's answer.
func correctKey(s *SessionScreen) rune {
	return rune('1' + s.ctx.DisplayIndexOf(s.ctx.Current().Answer))
}

func wrongKey(s *SessionScreen) rune {
	idx := (s.ctx.DisplayIndexOf(s.ctx.Current().Answer) + 1) % len(s.choices.Options)
	return rune('1' + idx)
}

func TestSessionScreen_Title(t *testing.T) {
	s := New(newTestDeps(sess.ModeFast, nil), sess.Options{})
	if s.Title() != "Session" {
		t.Errorf("Title() = %q", s.Title())
	}
}

func TestSessionScreen_View_Loading(t *testing.T) {
	s := New(newTestDeps(sess.ModeFast, nil), sess.Options{})
	if v := s.View(80, 24); !strings.Contains(v, "読み込んでいます") {
		t.Errorf("loading view = %q", v)
	}
}

func TestSessionScreen_LoadBatch(t *testing.T) {
	s := New(newTestDeps(sess.ModeFast, staticLoader(testQuestions(3))), sess.Options{Limit: 2})
	msg := s.loadBatch()()
	loaded, ok := msg.(batchLoadedMsg)
	if !ok {
		t.Fatalf("msg = %T, want batchLoadedMsg", msg)
	}
	if loaded.Err != nil || len(loaded.Batch.Questions) != 3 {
		t.Fatalf("loaded = %+v", loaded)
	}

	scr, cmd := s.Update(loaded)
	ss := scr.(*SessionScreen)
	if cmd == nil {
		t.Error("expected clock tick after start")
	}
	if len(ss.ctx.Queue) != 2 {
		t.Errorf("queue = %d, want limit 2", len(ss.ctx.Queue))
	}
	if v := ss.View(100, 30); !strings.Contains(v, "Q 1/2") {
		t.Errorf("question view missing progress: %q", v)
	}
}

func TestSessionScreen_View_Error(t *testing.T) {
	failing := catalog.LoaderFunc(func(context.Context, catalog.Query) (*catalog.Batch, error) {
		return nil, errors.New("boom")
	})
	s := New(newTestDeps(sess.ModeFast, failing), sess.Options{})
	scr, _ := s.Update(s.loadBatch()())

	v := scr.View(80, 24)
	if !strings.Contains(v, catalog.ErrUnavailable.Error()) {
		t.Errorf("error view = %q", v)
	}
	_, cmd := scr.Update(keyPress('x'))
	if cmd == nil {
		t.Fatal("expected pop after error")
	}
}

func TestSessionScreen_EmptyQueue(t *testing.T) {
	s := New(newTestDeps(sess.ModeFast, nil), sess.Options{WrongOnly: true})
	scr, _ := s.Update(batchLoadedMsg{Batch: &catalog.Batch{Questions: testQuestions(3), Origin: catalog.OriginFiles}})

	if v := scr.View(80, 24); !strings.Contains(v, "出題できる問題がありません") {
		t.Errorf("empty view = %q", v)
	}
}

func TestSessionScreen_FastModeSchedulesAdvance(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)

	scr, cmd := s.Update(keyPress(correctKey(s)))
	s = scr.(*SessionScreen)
	if cmd == nil {
		t.Fatal("expected auto-advance timer")
	}
	if s.ctx.Phase != sess.PhaseAdvancing {
		t.Fatalf("phase = %v, want advancing", s.ctx.Phase)
	}
	if s.ctx.Correct != 1 {
		t.Errorf("correct = %d, want 1", s.ctx.Correct)
	}
	if v := s.View(100, 30); !strings.Contains(v, "正解") {
		t.Errorf("feedback missing: %q", v)
	}

	scr, _ = s.Update(advanceMsg{Seq: s.seq})
	s = scr.(*SessionScreen)
	if s.ctx.Cursor != 1 || s.ctx.Phase != sess.PhaseAwaitingAnswer {
		t.Errorf("cursor = %d phase = %v after advance", s.ctx.Cursor, s.ctx.Phase)
	}
}

func TestSessionScreen_StaleAdvanceIgnored(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 3)

	scr, _ := s.Update(keyPress(wrongKey(s)))
	s = scr.(*SessionScreen)
	stale := s.seq - 1

	scr, _ = s.Update(advanceMsg{Seq: stale})
	s = scr.(*SessionScreen)
	if s.ctx.Cursor != 0 || s.ctx.Phase != sess.PhaseAdvancing {
		t.Errorf("stale timer advanced the session: cursor %d phase %v", s.ctx.Cursor, s.ctx.Phase)
	}
	if s.ctx.Wrong != 1 {
		t.Errorf("wrong = %d, want 1", s.ctx.Wrong)
	}
}

func TestSessionScreen_ManualModeWaitsForNext(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeManual, 2)

	scr, cmd := s.Update(keyPress(correctKey(s)))
	s = scr.(*SessionScreen)
	if cmd != nil {
		t.Error("manual mode must not schedule an advance")
	}
	if s.ctx.Phase != sess.PhaseAnswered {
		t.Fatalf("phase = %v, want answered", s.ctx.Phase)
	}

	scr, _ = s.Update(specialKey(tea.KeyEnter))
	s = scr.(*SessionScreen)
	if s.ctx.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", s.ctx.Cursor)
	}
}

func TestSessionScreen_CursorSubmit(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeManual, 1)
	want := s.ctx.DisplayIndexOf(s.ctx.Current().Answer)
	for range want {
		scr, _ := s.Update(specialKey(tea.KeyDown))
		s = scr.(*SessionScreen)
	}

	scr, _ := s.Update(specialKey(tea.KeyEnter))
	s = scr.(*SessionScreen)
	if s.ctx.Correct != 1 || s.choices.Chosen != want {
		t.Errorf("correct = %d chosen = %d, want 1 and %d", s.ctx.Correct, s.choices.Chosen, want)
	}
}

func TestSessionScreen_Pass(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeManual, 2)

	scr, cmd := s.Update(keyPress('p'))
	s = scr.(*SessionScreen)
	if cmd == nil {
		t.Error("passes always auto-advance")
	}
	if s.ctx.Passed != 1 || s.ctx.Answered() != 0 {
		t.Errorf("passed = %d answered = %d", s.ctx.Passed, s.ctx.Answered())
	}
	if v := s.View(100, 30); !strings.Contains(v, "パス") {
		t.Errorf("pass feedback missing: %q", v)
	}
}

func TestSessionScreen_PauseResume(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)

	scr, cmd := s.Update(specialKey(tea.KeySpace))
	s = scr.(*SessionScreen)
	if s.ctx.Phase != sess.PhasePaused {
		t.Fatalf("phase = %v, want paused", s.ctx.Phase)
	}
	if cmd == nil {
		t.Error("pause should flush results")
	}
	if v := s.View(100, 30); !strings.Contains(v, "一時停止中") {
		t.Errorf("paused view = %q", v)
	}

	// Answers are ignored while paused.
	scr, _ = s.Update(keyPress('1'))
	s = scr.(*SessionScreen)
	if len(s.ctx.Results) != 0 {
		t.Error("answer accepted while paused")
	}

	scr, _ = s.Update(specialKey(tea.KeySpace))
	s = scr.(*SessionScreen)
	if s.ctx.Phase != sess.PhaseAwaitingAnswer {
		t.Errorf("phase = %v after resume", s.ctx.Phase)
	}
}

func TestSessionScreen_PausedAdvanceIgnored(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)
	scr, _ := s.Update(keyPress(correctKey(s)))
	s = scr.(*SessionScreen)
	scr, _ = s.Update(specialKey(tea.KeySpace))
	s = scr.(*SessionScreen)

	scr, _ = s.Update(advanceMsg{Seq: s.seq})
	s = scr.(*SessionScreen)
	if s.ctx.Cursor != 0 {
		t.Fatal("advanced while paused")
	}

	scr, cmd := s.Update(specialKey(tea.KeySpace))
	s = scr.(*SessionScreen)
	if s.ctx.Phase != sess.PhaseAdvancing || cmd == nil {
		t.Errorf("resume should reschedule the advance, phase %v", s.ctx.Phase)
	}
}

func TestSessionScreen_QuitConfirm(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)

	scr, _ := s.Update(specialKey(tea.KeyEscape))
	s = scr.(*SessionScreen)
	if !s.confirmQuit {
		t.Fatal("expected quit confirmation")
	}
	if v := s.View(80, 24); !strings.Contains(v, "セッションを終了しますか") {
		t.Errorf("confirm view = %q", v)
	}

	scr, _ = s.Update(keyPress('n'))
	s = scr.(*SessionScreen)
	if s.confirmQuit || s.ctx.Phase != sess.PhaseAwaitingAnswer {
		t.Error("decline should return to the question")
	}
}

func TestSessionScreen_QuitConfirm_Yes(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 3)
	scr, _ := s.Update(keyPress(correctKey(s)))
	s = scr.(*SessionScreen)

	scr, _ = s.Update(keyPress('q'))
	scr, cmd := scr.Update(keyPress('y'))
	s = scr.(*SessionScreen)
	if s.ctx.Phase != sess.PhaseQuit {
		t.Fatalf("phase = %v, want quit", s.ctx.Phase)
	}
	if cmd == nil {
		t.Fatal("expected summary and sync commands")
	}
	if len(s.ctx.Queue) != 0 || len(s.ctx.Results) != 1 {
		t.Errorf("queue = %d results = %d", len(s.ctx.Queue), len(s.ctx.Results))
	}
}

func TestSessionScreen_CompleteFinishes(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeManual, 1)
	scr, _ := s.Update(keyPress(correctKey(s)))
	scr, cmd := scr.Update(keyPress('n'))
	s = scr.(*SessionScreen)
	if s.ctx.Phase != sess.PhaseComplete {
		t.Fatalf("phase = %v, want complete", s.ctx.Phase)
	}
	if cmd == nil {
		t.Error("expected summary and sync commands")
	}
}

func TestSessionScreen_ToggleMode(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)
	s.deps.Runner.SetPolicy(sess.Policy{Mode: sess.ModeFast, Explain: true})

	scr, _ := s.Update(keyPress('m'))
	s = scr.(*SessionScreen)
	p := s.deps.Runner.Policy()
	if p.Mode != sess.ModeManual || !p.Explain {
		t.Errorf("policy = %+v, want manual with explain kept", p)
	}
}

func TestSessionScreen_ExplanationOverlay(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)

	scr, _ := s.Update(keyPress('e'))
	s = scr.(*SessionScreen)
	scr, cmd := s.Update(keyPress(wrongKey(s)))
	s = scr.(*SessionScreen)
	if cmd != nil {
		t.Error("explain mode waits for the learner")
	}
	if !s.overlay {
		t.Fatal("overlay not shown")
	}
	v := s.View(100, 40)
	if !strings.Contains(v, quiz.NoExplanation) || !strings.Contains(v, "不正解") {
		t.Errorf("overlay view = %q", v)
	}
}

func TestSessionScreen_KeyHints(t *testing.T) {
	s := newLoadedScreen(t, sess.ModeFast, 2)
	hints := s.KeyHints()
	if len(hints) == 0 || hints[0].Key != "1-9" {
		t.Errorf("hints = %+v", hints)
	}
	if !s.HandlesEscape() {
		t.Error("active session should handle escape")
	}
}
