package session

import "time"

// DefaultLimit is the number of questions in a session unless configured.
const DefaultLimit = 30

// Options control which questions enter a session and in what order.
type Options struct {
	// WrongOnly keeps only questions missed before and never answered
	// correctly.
	WrongOnly bool

	// AvoidCorrect drops every question answered correctly at least once.
	AvoidCorrect bool

	// RandomOrder shuffles the filtered questions.
	RandomOrder bool

	// PrioritizeMisses orders by descending wrong count with random tie
	// breaks. It takes precedence over RandomOrder and is set when the
	// catalog did not come from the remote batch service.
	PrioritizeMisses bool

	// Limit caps the session length. Zero or negative means no cap.
	Limit int
}

// Mode is the advance policy after an answer.
type Mode int

const (
	// ModeFast advances automatically after a short delay.
	ModeFast Mode = iota
	// ModeManual waits for the learner to confirm.
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "fast"
}

const (
	DefaultAutoAdvanceDelay = 400 * time.Millisecond
	FastPassDelay           = 200 * time.Millisecond
	ManualPassDelay         = 400 * time.Millisecond
)

// Policy decides how the session advances. The runner reports delays; the
// UI owns the timers.
type Policy struct {
	Mode Mode

	// Explain shows the explanation overlay after each answer and waits
	// for the learner to close it.
	Explain bool

	AutoAdvanceDelay time.Duration
	PassAdvanceDelay time.Duration
}

// DefaultPolicy returns the policy for mode with the standard delays.
func DefaultPolicy(mode Mode) Policy {
	p := Policy{Mode: mode, AutoAdvanceDelay: DefaultAutoAdvanceDelay, PassAdvanceDelay: FastPassDelay}
	if mode == ModeManual {
		p.PassAdvanceDelay = ManualPassDelay
	}
	return p
}

// answerDelay is the auto-advance delay after a submitted answer. Zero means
// the learner has to confirm.
func (p Policy) answerDelay() time.Duration {
	if p.Explain || p.Mode == ModeManual {
		return 0
	}
	if p.AutoAdvanceDelay <= 0 {
		return DefaultAutoAdvanceDelay
	}
	return p.AutoAdvanceDelay
}

// passDelay is the auto-advance delay after a pass. Passes always advance
// on their own.
func (p Policy) passDelay() time.Duration {
	if p.PassAdvanceDelay > 0 {
		return p.PassAdvanceDelay
	}
	if p.Mode == ModeManual {
		return ManualPassDelay
	}
	return FastPassDelay
}
