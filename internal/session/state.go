package session

import (
	"time"

	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/quiz"
)

// Phase is the runner's state for the current question.
type Phase int

const (
	PhaseAwaitingAnswer Phase = iota // Question shown, waiting for an answer
	PhaseAnswered                    // Answer recorded, waiting for the learner to continue
	PhaseAdvancing                   // Answer recorded, auto-advance scheduled
	PhaseComplete                    // Queue exhausted
	PhasePaused                      // Suspended; resumes into the held phase
	PhaseQuit                        // Queue discarded
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	case PhaseAnswered:
		return "answered"
	case PhaseAdvancing:
		return "advancing"
	case PhaseComplete:
		return "complete"
	case PhasePaused:
		return "paused"
	case PhaseQuit:
		return "quit"
	}
	return "unknown"
}

// Terminal reports whether the session can no longer take answers.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseQuit
}

// TriggersSync reports whether entering p should flush pending results.
func (p Phase) TriggersSync() bool {
	return p == PhaseComplete || p == PhasePaused || p == PhaseQuit
}

// Context is the state of one session, owned by the Runner. It is not safe
// for concurrent use.
type Context struct {
	// ID is the UUID for this session.
	ID string

	// Queue is the ordered question list built at start. It is dropped on
	// quit.
	Queue []quiz.Question

	// Cursor is the index of the current question in Queue.
	Cursor int

	// Phase is the current phase.
	Phase Phase

	// DisplayOrder maps a displayed option position to the original option
	// index for the current question.
	DisplayOrder []int

	// QuestionStart is when the current question was first presented.
	QuestionStart time.Time

	// StartTime is when the session began.
	StartTime time.Time

	// Correct, Wrong and Passed count this session's answers.
	Correct int
	Wrong   int
	Passed  int

	// Last is the outcome of the most recent answer or pass.
	Last *Outcome

	// Results holds every outcome of the session in answer order.
	Results []Outcome

	heldPhase Phase
	pausedAt  time.Time
}

// Outcome is the result of one submitted or passed question.
type Outcome struct {
	Question quiz.Question
	// Choice is the original option index, or quiz.PassChoice.
	Choice  int
	Correct bool
	Elapsed time.Duration

	// Record is a snapshot of the question's mastery after the answer. It
	// is nil for passes on questions never answered.
	Record *progress.MasteryRecord

	// Delay is how long the UI should wait before advancing. Zero means
	// wait for the learner.
	Delay time.Duration

	// ShowExplanation asks the UI to show the explanation overlay.
	ShowExplanation bool
}

// Passed reports whether the outcome is a pass.
func (o Outcome) Passed() bool {
	return o.Choice == quiz.PassChoice
}

// Current returns the question at the cursor, or nil when there is none.
func (c *Context) Current() *quiz.Question {
	if c == nil || c.Phase.Terminal() || c.Cursor < 0 || c.Cursor >= len(c.Queue) {
		return nil
	}
	return &c.Queue[c.Cursor]
}

// DisplayedOptions returns the current question's options in display order.
func (c *Context) DisplayedOptions() []string {
	q := c.Current()
	if q == nil {
		return nil
	}
	out := make([]string, len(c.DisplayOrder))
	for i, orig := range c.DisplayOrder {
		out[i] = q.Options[orig]
	}
	return out
}

// DisplayIndexOf returns the display position of an original option index,
// or -1.
func (c *Context) DisplayIndexOf(original int) int {
	for i, orig := range c.DisplayOrder {
		if orig == original {
			return i
		}
	}
	return -1
}

// Answered is the number of non-pass answers this session.
func (c *Context) Answered() int {
	return c.Correct + c.Wrong
}

// Remaining is the number of questions after the current one.
func (c *Context) Remaining() int {
	if c.Phase.Terminal() {
		return 0
	}
	n := len(c.Queue) - c.Cursor - 1
	if n < 0 {
		return 0
	}
	return n
}

// HeldPhase is the phase a paused session resumes into.
func (c *Context) HeldPhase() Phase {
	return c.heldPhase
}
