package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kihon/kuiz/internal/outbox"
	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/quiz"
)

// fakeClock advances only when told to.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type memJournal struct {
	answers  []AnswerEntry
	sessions []SessionEntry
}

func (j *memJournal) AppendAnswer(_ context.Context, e AnswerEntry) error {
	j.answers = append(j.answers, e)
	return nil
}

func (j *memJournal) AppendSession(_ context.Context, e SessionEntry) error {
	j.sessions = append(j.sessions, e)
	return nil
}

type captureSink struct {
	batches []outbox.Batch
	err     error
}

func (s *captureSink) Submit(_ context.Context, b outbox.Batch) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

type harness struct {
	runner  *Runner
	clock   *fakeClock
	journal *memJournal
	sink    *captureSink
	buf     *outbox.Buffer
	store   *progress.Store
}

func newHarness(t *testing.T, policy Policy, seed uint64) *harness {
	t.Helper()
	h := &harness{
		clock:   &fakeClock{now: t0},
		journal: &memJournal{},
		sink:    &captureSink{},
		store:   progress.NewStore(progress.NewMemoryKV(), nil),
	}
	h.buf = outbox.New("demo-user", h.sink)
	h.runner = NewRunner(Config{
		State:   progress.NewState(),
		Store:   h.store,
		Outbox:  h.buf,
		Journal: h.journal,
		Policy:  policy,
		Clock:   h.clock.Now,
		Rand:    rand.New(rand.NewPCG(seed, seed+1)),
	})
	return h
}

// displayOf returns the display index showing the original option.
func displayOf(t *testing.T, c *Context, original int) int {
	t.Helper()
	i := c.DisplayIndexOf(original)
	if i < 0 {
		t.Fatalf("original index %d not displayed (order %v)", original, c.DisplayOrder)
	}
	return i
}

func TestSubmit_DisplayOrderIndependence(t *testing.T) {
	q := quiz.Question{ID: "abc", Category: quiz.CategoryBasicIT, Options: []string{"A", "B", "C"}, Answer: 1}
	positions := make(map[int]bool)

	for seed := range uint64(40) {
		h := newHarness(t, DefaultPolicy(ModeFast), seed)
		c := h.runner.Start(context.Background(), []quiz.Question{q})

		shown := c.DisplayedOptions()
		di := displayOf(t, c, 1)
		positions[di] = true
		if shown[di] != "B" {
			t.Fatalf("seed %d: display %d shows %q, want B", seed, di, shown[di])
		}

		out, err := h.runner.Submit(context.Background(), c, di)
		if err != nil {
			t.Fatalf("seed %d: submit: %v", seed, err)
		}
		if !out.Correct || out.Choice != 1 {
			t.Fatalf("seed %d: outcome = %+v, want correct with choice 1", seed, out)
		}
	}
	if len(positions) < 2 {
		t.Errorf("display order never changed across seeds: %v", positions)
	}
}

func TestSubmit_RecordsOriginalIndex(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 11)
	q := quiz.Question{ID: "q1", Category: quiz.CategoryBasicIT, Options: []string{"x", "y"}, Answer: 0}
	ctx := context.Background()
	c := h.runner.Start(ctx, []quiz.Question{q, q})

	h.clock.Advance(1500 * time.Millisecond)
	out, err := h.runner.Submit(ctx, c, displayOf(t, c, 1))
	if err != nil {
		t.Fatal(err)
	}
	if out.Correct {
		t.Error("choosing y should be wrong")
	}
	if out.Elapsed != 1500*time.Millisecond {
		t.Errorf("elapsed = %v, want 1.5s", out.Elapsed)
	}
	if err := h.runner.Advance(ctx, c); err != nil {
		t.Fatal(err)
	}
	if _, err := h.runner.Submit(ctx, c, displayOf(t, c, 0)); err != nil {
		t.Fatal(err)
	}

	rec := h.runner.State().Record("q1")
	if rec.CorrectCount != 1 || rec.WrongCount != 1 {
		t.Errorf("record = %+v, want 1 correct 1 wrong", rec)
	}
	if len(rec.WrongChoices) != 1 || rec.WrongChoices[0] != 1 {
		t.Errorf("wrong choices = %v, want [1]", rec.WrongChoices)
	}

	pending := h.buf.Pending()
	if len(pending) != 2 || pending[0].Choice != 1 || pending[1].Choice != 0 {
		t.Errorf("pending = %+v", pending)
	}
	if pending[0].ElapsedMs != 1500 {
		t.Errorf("elapsedMs = %d, want 1500", pending[0].ElapsedMs)
	}

	// Progress is saved after every answer.
	saved := h.store.Load(ctx)
	if saved.TotalAnswers != 2 || saved.TotalCorrect != 1 {
		t.Errorf("saved totals = %d/%d, want 2/1", saved.TotalAnswers, saved.TotalCorrect)
	}
}

func TestPass_DoesNotTouchProgress(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 12)
	ctx := context.Background()
	catalog := testCatalog(3)
	c := h.runner.Start(ctx, catalog)

	if _, err := h.runner.Submit(ctx, c, displayOf(t, c, catalog[0].Answer)); err != nil {
		t.Fatal(err)
	}
	_ = h.runner.Advance(ctx, c)

	out, err := h.runner.Pass(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Passed() || out.Delay != FastPassDelay {
		t.Errorf("pass outcome = %+v", out)
	}

	state := h.runner.State()
	if state.TotalAnswers != 1 || state.TotalCorrect != 1 {
		t.Errorf("totals = %d/%d, want 1/1 (pass excluded)", state.TotalAnswers, state.TotalCorrect)
	}
	if state.Record(catalog[1].ID) != nil {
		t.Error("pass created a mastery record")
	}
	if c.Passed != 1 || c.Answered() != 1 {
		t.Errorf("session counts passed=%d answered=%d", c.Passed, c.Answered())
	}

	pending := h.buf.Pending()
	if len(pending) != 2 || !pending[1].IsPass() {
		t.Errorf("pending = %+v, want pass event last", pending)
	}
	if len(h.journal.answers) != 2 || h.journal.answers[1].Choice != quiz.PassChoice {
		t.Errorf("journal = %+v", h.journal.answers)
	}
}

func TestElapsed_ClampedAtZero(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 13)
	ctx := context.Background()
	c := h.runner.Start(ctx, testCatalog(1))
	h.clock.Advance(-time.Second)

	out, err := h.runner.Pass(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if out.Elapsed != 0 {
		t.Errorf("elapsed = %v, want 0", out.Elapsed)
	}
}

func TestPolicyDelays(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		answerDelay time.Duration
		passDelay   time.Duration
		wantPhase   Phase
		explain     bool
	}{
		{"fast", DefaultPolicy(ModeFast), 400 * time.Millisecond, 200 * time.Millisecond, PhaseAdvancing, false},
		{"manual", DefaultPolicy(ModeManual), 0, 400 * time.Millisecond, PhaseAnswered, false},
		{"fast explain", Policy{Mode: ModeFast, Explain: true}, 0, 200 * time.Millisecond, PhaseAnswered, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.policy, 14)
			ctx := context.Background()
			c := h.runner.Start(ctx, testCatalog(2))

			out, err := h.runner.Submit(ctx, c, 0)
			if err != nil {
				t.Fatal(err)
			}
			if out.Delay != tt.answerDelay {
				t.Errorf("answer delay = %v, want %v", out.Delay, tt.answerDelay)
			}
			if out.ShowExplanation != tt.explain {
				t.Errorf("explain = %v, want %v", out.ShowExplanation, tt.explain)
			}
			if c.Phase != tt.wantPhase {
				t.Errorf("phase = %v, want %v", c.Phase, tt.wantPhase)
			}

			_ = h.runner.Advance(ctx, c)
			out, err = h.runner.Pass(ctx, c)
			if err != nil {
				t.Fatal(err)
			}
			if out.Delay != tt.passDelay {
				t.Errorf("pass delay = %v, want %v", out.Delay, tt.passDelay)
			}
			if c.Phase != PhaseAdvancing {
				t.Errorf("phase after pass = %v, want advancing", c.Phase)
			}
		})
	}
}

func TestPhaseTransitions(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 15)
	ctx := context.Background()
	c := h.runner.Start(ctx, testCatalog(2))

	if err := h.runner.Advance(ctx, c); err == nil {
		t.Error("advance before answering should fail")
	}
	if _, err := h.runner.Submit(ctx, c, 7); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("out of range submit err = %v", err)
	}

	_, _ = h.runner.Submit(ctx, c, 0)
	var pe *PhaseError
	if _, err := h.runner.Submit(ctx, c, 0); !errors.As(err, &pe) {
		t.Errorf("double submit err = %v, want PhaseError", err)
	}

	_ = h.runner.Advance(ctx, c)
	if c.Phase != PhaseAwaitingAnswer || c.Cursor != 1 {
		t.Fatalf("phase=%v cursor=%d", c.Phase, c.Cursor)
	}
	_, _ = h.runner.Pass(ctx, c)
	_ = h.runner.Advance(ctx, c)
	if c.Phase != PhaseComplete {
		t.Errorf("phase = %v, want complete", c.Phase)
	}
	if !c.Phase.TriggersSync() {
		t.Error("complete should trigger sync")
	}
	if c.Current() != nil {
		t.Error("no current question after completion")
	}

	actions := []string{}
	for _, e := range h.journal.sessions {
		actions = append(actions, e.Action)
	}
	if len(actions) != 2 || actions[0] != ActionStart || actions[1] != ActionComplete {
		t.Errorf("journal actions = %v", actions)
	}
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 16)
	ctx := context.Background()
	c := h.runner.Start(ctx, testCatalog(2))

	h.clock.Advance(2 * time.Second)
	if err := h.runner.Pause(ctx, c); err != nil {
		t.Fatal(err)
	}
	if c.Phase != PhasePaused || c.HeldPhase() != PhaseAwaitingAnswer {
		t.Fatalf("phase=%v held=%v", c.Phase, c.HeldPhase())
	}
	if _, err := h.runner.Submit(ctx, c, 0); err == nil {
		t.Error("submit while paused should fail")
	}

	h.clock.Advance(time.Minute)
	if err := h.runner.Resume(ctx, c); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(time.Second)
	out, err := h.runner.Submit(ctx, c, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Elapsed != 3*time.Second {
		t.Errorf("elapsed = %v, want 3s excluding pause", out.Elapsed)
	}

	// Pausing while advancing resumes into advancing.
	_ = h.runner.Pause(ctx, c)
	if err := h.runner.Advance(ctx, c); err == nil {
		t.Error("advance while paused should fail")
	}
	_ = h.runner.Resume(ctx, c)
	if c.Phase != PhaseAdvancing {
		t.Errorf("phase = %v, want advancing", c.Phase)
	}
}

func TestPauseAndQuitSync(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeManual), 17)
	ctx := context.Background()
	c := h.runner.Start(ctx, testCatalog(3))

	_, _ = h.runner.Submit(ctx, c, 0)
	_ = h.runner.Advance(ctx, c)
	_, _ = h.runner.Pass(ctx, c)

	_ = h.runner.Pause(ctx, c)
	h.sink.err = errors.New("offline")
	if _, err := h.runner.Sync(ctx); err == nil {
		t.Fatal("expected sync failure")
	}
	if h.buf.Len() != 2 {
		t.Fatalf("pending = %d, want 2 retained", h.buf.Len())
	}

	h.sink.err = nil
	if err := h.runner.Quit(ctx, c); err != nil {
		t.Fatal(err)
	}
	n, err := h.runner.Sync(ctx)
	if err != nil || n != 2 {
		t.Fatalf("sync = %d, %v", n, err)
	}
	if c.Queue != nil || c.Phase != PhaseQuit {
		t.Errorf("quit should discard the queue, phase=%v", c.Phase)
	}
	if len(h.sink.batches) != 1 || h.sink.batches[0].Results[1].Choice != quiz.PassChoice {
		t.Errorf("batches = %+v", h.sink.batches)
	}
	if err := h.runner.Resume(ctx, c); err == nil {
		t.Error("resume after quit should fail")
	}
}

func TestStart_EmptyQueue(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 18)
	c := h.runner.Start(context.Background(), nil)
	if c.Phase != PhaseComplete || c.Current() != nil {
		t.Errorf("empty session phase = %v", c.Phase)
	}
	if len(h.journal.sessions) != 0 {
		t.Error("empty session should not be journaled")
	}
}

func TestBuildSummary(t *testing.T) {
	h := newHarness(t, DefaultPolicy(ModeFast), 19)
	ctx := context.Background()
	catalog := testCatalog(4)
	c := h.runner.Start(ctx, catalog)

	// correct, wrong, pass, then quit
	_, _ = h.runner.Submit(ctx, c, displayOf(t, c, catalog[0].Answer))
	_ = h.runner.Advance(ctx, c)
	_, _ = h.runner.Submit(ctx, c, displayOf(t, c, (catalog[1].Answer+1)%4))
	_ = h.runner.Advance(ctx, c)
	_, _ = h.runner.Pass(ctx, c)
	h.clock.Advance(time.Minute)
	_ = h.runner.Quit(ctx, c)

	s := BuildSummary(c, h.clock.Now())
	if !s.Quit || s.Questions != 3 || s.Correct != 1 || s.Wrong != 1 || s.Passed != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Accuracy != 0.5 {
		t.Errorf("accuracy = %v, want 0.5", s.Accuracy)
	}
	if s.Duration != time.Minute {
		t.Errorf("duration = %v", s.Duration)
	}
	if len(s.Missed) != 1 || s.Missed[0].ID != catalog[1].ID {
		t.Errorf("missed = %+v", s.Missed)
	}
	if len(s.Categories) != 2 {
		t.Fatalf("categories = %+v", s.Categories)
	}
	basic := s.Categories[0]
	if basic.Category != quiz.CategoryBasicIT || basic.Correct != 1 || basic.Passed != 1 {
		t.Errorf("basic = %+v", basic)
	}
}
