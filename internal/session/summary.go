package session

import (
	"time"

	"github.com/kihon/kuiz/internal/quiz"
)

// CategoryResult tracks per-category performance within a single session.
type CategoryResult struct {
	Category quiz.Category
	Answered int
	Correct  int
	Passed   int
}

// Summary holds the data displayed when a session ends.
type Summary struct {
	SessionID string
	Duration  time.Duration
	Questions int
	Answered  int
	Correct   int
	Wrong     int
	Passed    int
	Accuracy  float64
	Quit      bool

	Categories []CategoryResult

	// Missed lists the questions answered wrongly, in answer order.
	Missed []quiz.Question
}

// BuildSummary creates a Summary from a session context at end.
func BuildSummary(c *Context, end time.Time) *Summary {
	s := &Summary{
		SessionID: c.ID,
		Duration:  end.Sub(c.StartTime),
		Questions: len(c.Results),
		Correct:   c.Correct,
		Wrong:     c.Wrong,
		Passed:    c.Passed,
		Answered:  c.Answered(),
		Quit:      c.Phase == PhaseQuit,
	}
	if s.Duration < 0 {
		s.Duration = 0
	}
	if c.Phase != PhaseQuit && len(c.Queue) > s.Questions {
		s.Questions = len(c.Queue)
	}
	if s.Answered > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Answered)
	}

	index := make(map[quiz.Category]int)
	for _, out := range c.Results {
		cat := out.Question.Category
		i, ok := index[cat]
		if !ok {
			i = len(s.Categories)
			index[cat] = i
			s.Categories = append(s.Categories, CategoryResult{Category: cat})
		}
		cr := &s.Categories[i]
		switch {
		case out.Passed():
			cr.Passed++
		case out.Correct:
			cr.Answered++
			cr.Correct++
		default:
			cr.Answered++
			s.Missed = append(s.Missed, out.Question)
		}
	}
	return s
}
