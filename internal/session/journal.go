package session

import (
	"context"
	"time"

	"github.com/kihon/kuiz/internal/quiz"
)

// Session actions written to the journal.
const (
	ActionStart    = "start"
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionComplete = "complete"
	ActionQuit     = "quit"
)

// AnswerEntry is one journaled answer or pass.
type AnswerEntry struct {
	SessionID  string
	QuestionID string
	Category   quiz.Category
	Choice     int
	Correct    bool
	ElapsedMs  int64
	At         time.Time
}

// SessionEntry is one journaled session lifecycle event.
type SessionEntry struct {
	SessionID string
	Action    string
	Questions int
	Correct   int
	Wrong     int
	Passed    int
	At        time.Time
}

// Journal is an append-only local history of sessions and answers.
type Journal interface {
	AppendAnswer(ctx context.Context, e AnswerEntry) error
	AppendSession(ctx context.Context, e SessionEntry) error
}
