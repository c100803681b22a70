package progress

import (
	"time"

	"github.com/kihon/kuiz/internal/quiz"
)

// CategoryStats summarizes progress for one category.
type CategoryStats struct {
	Category  quiz.Category
	Questions int
	Attempted int
	Mastered  int
	// PassRate is the fraction of the category's questions answered
	// correctly at least once.
	PassRate float64
}

// Stats are the aggregate figures derived from a progress state and the full
// catalog.
type Stats struct {
	TotalQuestions int
	TotalAnswers   int
	TotalCorrect   int
	Attempted      int
	Mastered       int
	Due            int

	// Accuracy is TotalCorrect / TotalAnswers.
	Accuracy float64
	// PassRate is TotalCorrect / TotalQuestions.
	PassRate float64
	// MasteryRate is Mastered / TotalQuestions.
	MasteryRate float64

	Categories []CategoryStats
}

// ComputeStats derives statistics from state over the whole catalog, not
// only the questions of the current session.
func ComputeStats(state *State, catalog []quiz.Question, now time.Time) Stats {
	if state == nil {
		state = NewState()
	}
	st := Stats{
		TotalQuestions: len(catalog),
		TotalAnswers:   state.TotalAnswers,
		TotalCorrect:   state.TotalCorrect,
	}
	if st.TotalAnswers > 0 {
		st.Accuracy = float64(st.TotalCorrect) / float64(st.TotalAnswers)
	}

	byCat := make(map[quiz.Category]*CategoryStats)
	for _, c := range quiz.Categories() {
		byCat[c] = &CategoryStats{Category: c}
	}

	for _, q := range catalog {
		cs, ok := byCat[q.Category]
		if !ok {
			cs = &CategoryStats{Category: q.Category}
			byCat[q.Category] = cs
		}
		cs.Questions++

		rec := state.Record(q.ID)
		if rec.Attempts() > 0 {
			cs.Attempted++
			st.Attempted++
		}
		if rec.Mastered() {
			cs.Mastered++
			st.Mastered++
		}
		if rec != nil && rec.Review.IsDue(now) {
			st.Due++
		}
	}

	if st.TotalQuestions > 0 {
		st.PassRate = float64(st.TotalCorrect) / float64(st.TotalQuestions)
		st.MasteryRate = float64(st.Mastered) / float64(st.TotalQuestions)
	}

	for _, c := range quiz.Categories() {
		st.Categories = append(st.Categories, finishCategory(byCat[c]))
		delete(byCat, c)
	}
	// Categories outside the known set are appended after the known ones.
	for _, q := range catalog {
		if cs, ok := byCat[q.Category]; ok {
			st.Categories = append(st.Categories, finishCategory(cs))
			delete(byCat, q.Category)
		}
	}
	return st
}

func finishCategory(cs *CategoryStats) CategoryStats {
	if cs.Questions > 0 {
		cs.PassRate = float64(cs.Mastered) / float64(cs.Questions)
	}
	return *cs
}

// Category returns the stats for c, or zero stats if c is not present.
func (s Stats) Category(c quiz.Category) CategoryStats {
	for _, cs := range s.Categories {
		if cs.Category == c {
			return cs
		}
	}
	return CategoryStats{Category: c}
}
