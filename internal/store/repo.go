package store

import (
	"time"

	"github.com/kihon/kuiz/internal/quiz"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int    // max results (0 = unlimited)
	After     int64  // sequence > After
	Before    int64  // sequence < Before
	SessionID string // only events of this session
}

// AnswerRecord is a journaled answer as read back from the database.
type AnswerRecord struct {
	Sequence   int64
	Timestamp  time.Time
	SessionID  string
	QuestionID string
	Category   quiz.Category
	Choice     int
	Correct    bool
	ElapsedMs  int64
}

// Passed reports whether the answer was a pass.
func (r AnswerRecord) Passed() bool {
	return r.Choice == quiz.PassChoice
}

// SessionRecord is a journaled session lifecycle event.
type SessionRecord struct {
	Sequence  int64
	Timestamp time.Time
	SessionID string
	Action    string
	Questions int
	Correct   int
	Wrong     int
	Passed    int
}
