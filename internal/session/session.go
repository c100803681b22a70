// Package session selects the questions of a practice session and runs it:
// presenting questions in shuffled option order, recording answers into
// the progress store and buffering answer events for sync.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/quiz"
)

// ErrInvalidChoice is returned when a display index is out of range.
var ErrInvalidChoice = errors.New("session: choice out of range")

// PhaseError is returned when an operation is not allowed in the current
// phase.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("session: cannot %s while %s", e.Op, e.Phase)
}

// Outbox buffers answer events until they are synced.
type Outbox interface {
	Append(ctx context.Context, ev quiz.AnswerEvent)
	Flush(ctx context.Context) (int, error)
}

// Config holds the runner's collaborators. Only State is required; a nil
// Store keeps progress in memory, a nil Outbox or Journal is skipped.
type Config struct {
	State   *progress.State
	Store   *progress.Store
	Outbox  Outbox
	Journal Journal
	Policy  Policy
	Logger  *slog.Logger

	// Clock and Rand are overridable for tests.
	Clock func() time.Time
	Rand  *rand.Rand
}

// Runner drives sessions. It owns the progress state while a session runs.
type Runner struct {
	state   *progress.State
	store   *progress.Store
	outbox  Outbox
	journal Journal
	policy  Policy
	logger  *slog.Logger
	now     func() time.Time
	rng     *rand.Rand
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg Config) *Runner {
	r := &Runner{
		state:   cfg.State,
		store:   cfg.Store,
		outbox:  cfg.Outbox,
		journal: cfg.Journal,
		policy:  cfg.Policy,
		logger:  cfg.Logger,
		now:     cfg.Clock,
		rng:     cfg.Rand,
	}
	if r.state == nil {
		r.state = progress.NewState()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// State returns the progress state the runner records into.
func (r *Runner) State() *progress.State { return r.state }

// Policy returns the current advance policy.
func (r *Runner) Policy() Policy { return r.policy }

// SetPolicy changes the advance policy. It applies from the next answer.
func (r *Runner) SetPolicy(p Policy) { r.policy = p }

// Start begins a session over queue and presents the first question. An
// empty queue yields a context that is already complete.
func (r *Runner) Start(ctx context.Context, queue []quiz.Question) *Context {
	c := &Context{
		ID:        uuid.NewString(),
		Queue:     slices.Clone(queue),
		StartTime: r.now(),
	}
	if len(c.Queue) == 0 {
		c.Phase = PhaseComplete
		return c
	}
	r.journalSession(ctx, c, ActionStart)
	r.present(c)
	return c
}

// present shows the question at the cursor with a fresh display order and
// starts its timer.
func (r *Runner) present(c *Context) {
	q := c.Queue[c.Cursor]
	c.DisplayOrder = r.rng.Perm(len(q.Options))
	c.QuestionStart = r.now()
	c.Phase = PhaseAwaitingAnswer
}

// Submit records the option shown at displayIndex as the answer to the
// current question. A failed save is logged and does not fail the answer.
func (r *Runner) Submit(ctx context.Context, c *Context, displayIndex int) (Outcome, error) {
	if c.Phase != PhaseAwaitingAnswer {
		return Outcome{}, &PhaseError{Op: "submit", Phase: c.Phase}
	}
	if displayIndex < 0 || displayIndex >= len(c.DisplayOrder) {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidChoice, displayIndex)
	}

	q := c.Queue[c.Cursor]
	original := c.DisplayOrder[displayIndex]
	correct := q.IsCorrect(original)
	now := r.now()
	elapsed := r.elapsed(c, now)

	rec := r.state.RecordAnswer(q.ID, original, correct, now)
	r.state.Reschedule(q.ID, correct, elapsed, now)
	if r.store != nil {
		if err := r.store.Save(ctx, r.state); err != nil {
			r.logger.Warn("save progress", "question", q.ID, "error", err)
		}
	}

	if correct {
		c.Correct++
	} else {
		c.Wrong++
	}

	out := Outcome{
		Question:        q,
		Choice:          original,
		Correct:         correct,
		Elapsed:         elapsed,
		Record:          snapshot(rec),
		Delay:           r.policy.answerDelay(),
		ShowExplanation: r.policy.Explain,
	}
	r.finish(ctx, c, out, now)
	return out, nil
}

// Pass skips the current question. Progress counts are not touched.
func (r *Runner) Pass(ctx context.Context, c *Context) (Outcome, error) {
	if c.Phase != PhaseAwaitingAnswer {
		return Outcome{}, &PhaseError{Op: "pass", Phase: c.Phase}
	}
	q := c.Queue[c.Cursor]
	now := r.now()
	c.Passed++

	out := Outcome{
		Question: q,
		Choice:   quiz.PassChoice,
		Elapsed:  r.elapsed(c, now),
		Record:   snapshot(r.state.Record(q.ID)),
		Delay:    r.policy.passDelay(),
	}
	r.finish(ctx, c, out, now)
	return out, nil
}

func (r *Runner) finish(ctx context.Context, c *Context, out Outcome, now time.Time) {
	ev := quiz.AnswerEvent{
		QuestionID: out.Question.ID,
		Choice:     out.Choice,
		ElapsedMs:  out.Elapsed.Milliseconds(),
	}
	if r.outbox != nil {
		r.outbox.Append(ctx, ev)
	}
	if r.journal != nil {
		err := r.journal.AppendAnswer(ctx, AnswerEntry{
			SessionID:  c.ID,
			QuestionID: ev.QuestionID,
			Category:   out.Question.Category,
			Choice:     ev.Choice,
			Correct:    out.Correct,
			ElapsedMs:  ev.ElapsedMs,
			At:         now,
		})
		if err != nil {
			r.logger.Warn("journal answer", "question", ev.QuestionID, "error", err)
		}
	}

	c.Results = append(c.Results, out)
	c.Last = &c.Results[len(c.Results)-1]
	if out.Delay > 0 {
		c.Phase = PhaseAdvancing
	} else {
		c.Phase = PhaseAnswered
	}
}

// Advance moves past an answered question, presenting the next one or
// completing the session.
func (r *Runner) Advance(ctx context.Context, c *Context) error {
	if c.Phase != PhaseAnswered && c.Phase != PhaseAdvancing {
		return &PhaseError{Op: "advance", Phase: c.Phase}
	}
	c.Cursor++
	if c.Cursor >= len(c.Queue) {
		c.Phase = PhaseComplete
		c.DisplayOrder = nil
		r.journalSession(ctx, c, ActionComplete)
		return nil
	}
	r.present(c)
	return nil
}

// Pause suspends the session. Resume returns to the phase held at pause.
func (r *Runner) Pause(ctx context.Context, c *Context) error {
	switch c.Phase {
	case PhasePaused:
		return nil
	case PhaseQuit:
		return &PhaseError{Op: "pause", Phase: c.Phase}
	}
	c.heldPhase = c.Phase
	c.pausedAt = r.now()
	c.Phase = PhasePaused
	r.journalSession(ctx, c, ActionPause)
	return nil
}

// Resume continues a paused session. Time spent paused does not count
// toward the current question.
func (r *Runner) Resume(ctx context.Context, c *Context) error {
	if c.Phase != PhasePaused {
		return &PhaseError{Op: "resume", Phase: c.Phase}
	}
	if c.heldPhase == PhaseAwaitingAnswer {
		if d := r.now().Sub(c.pausedAt); d > 0 {
			c.QuestionStart = c.QuestionStart.Add(d)
		}
	}
	c.Phase = c.heldPhase
	r.journalSession(ctx, c, ActionResume)
	return nil
}

// Quit ends the session and discards its queue. Results stay on c for the
// summary.
func (r *Runner) Quit(ctx context.Context, c *Context) error {
	if c.Phase == PhaseQuit {
		return nil
	}
	r.journalSession(ctx, c, ActionQuit)
	c.Phase = PhaseQuit
	c.Queue = nil
	c.Cursor = 0
	c.DisplayOrder = nil
	return nil
}

// Sync flushes buffered answer events. Callers run it after every phase
// for which TriggersSync is true. A failure leaves the events buffered.
func (r *Runner) Sync(ctx context.Context) (int, error) {
	if r.outbox == nil {
		return 0, nil
	}
	return r.outbox.Flush(ctx)
}

func (r *Runner) elapsed(c *Context, now time.Time) time.Duration {
	d := now.Sub(c.QuestionStart)
	if d < 0 {
		return 0
	}
	return d
}

func (r *Runner) journalSession(ctx context.Context, c *Context, action string) {
	if r.journal == nil {
		return
	}
	err := r.journal.AppendSession(ctx, SessionEntry{
		SessionID: c.ID,
		Action:    action,
		Questions: len(c.Queue),
		Correct:   c.Correct,
		Wrong:     c.Wrong,
		Passed:    c.Passed,
		At:        r.now(),
	})
	if err != nil {
		r.logger.Warn("journal session", "session", c.ID, "action", action, "error", err)
	}
}

func snapshot(rec *progress.MasteryRecord) *progress.MasteryRecord {
	if rec == nil {
		return nil
	}
	cp := *rec
	cp.WrongChoices = slices.Clone(rec.WrongChoices)
	return &cp
}
