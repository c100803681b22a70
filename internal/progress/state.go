package progress

import (
	"slices"
	"time"
)

// MasteryRecord tracks a learner's history with one question.
type MasteryRecord struct {
	CorrectCount   int        `json:"correctCount"`
	WrongCount     int        `json:"wrongCount"`
	LastAnsweredAt *time.Time `json:"lastAnsweredAt,omitempty"`
	// WrongChoices holds original option indices previously chosen
	// incorrectly, in first-seen order without duplicates.
	WrongChoices []int `json:"wrongChoiceIndices"`

	Review Review `json:"review"`
}

// Mastered reports whether the question was ever answered correctly.
func (r *MasteryRecord) Mastered() bool {
	return r != nil && r.CorrectCount > 0
}

// Struggling reports whether the question has only ever been missed.
func (r *MasteryRecord) Struggling() bool {
	return r != nil && r.WrongCount > 0 && r.CorrectCount == 0
}

// Attempts is the number of non-pass answers recorded for the question.
func (r *MasteryRecord) Attempts() int {
	if r == nil {
		return 0
	}
	return r.CorrectCount + r.WrongCount
}

// ChoseWrong reports whether the original option index was chosen
// incorrectly before.
func (r *MasteryRecord) ChoseWrong(index int) bool {
	return r != nil && slices.Contains(r.WrongChoices, index)
}

// State is the persisted learner progress. TotalAnswers and TotalCorrect
// count non-pass answers only.
type State struct {
	Questions    map[string]*MasteryRecord `json:"questions"`
	TotalAnswers int                       `json:"totalAnswers"`
	TotalCorrect int                       `json:"correctCount"`
}

// NewState returns an empty progress state.
func NewState() *State {
	return &State{Questions: make(map[string]*MasteryRecord)}
}

// Record returns the mastery record for a question, or nil if it has never
// been answered.
func (s *State) Record(questionID string) *MasteryRecord {
	if s == nil {
		return nil
	}
	return s.Questions[questionID]
}

// RecordAnswer applies one answer to the state. The record is created on
// first use. The caller is responsible for persisting the state.
func (s *State) RecordAnswer(questionID string, chosen int, correct bool, at time.Time) *MasteryRecord {
	if s.Questions == nil {
		s.Questions = make(map[string]*MasteryRecord)
	}
	rec := s.Questions[questionID]
	if rec == nil {
		rec = &MasteryRecord{}
		s.Questions[questionID] = rec
	}

	if correct {
		rec.CorrectCount++
		s.TotalCorrect++
	} else {
		rec.WrongCount++
		if !slices.Contains(rec.WrongChoices, chosen) {
			rec.WrongChoices = append(rec.WrongChoices, chosen)
		}
	}
	s.TotalAnswers++

	t := at.UTC()
	rec.LastAnsweredAt = &t
	return rec
}

// Reschedule advances the review schedule of an answered question.
func (s *State) Reschedule(questionID string, correct bool, elapsed time.Duration, now time.Time) {
	rec := s.Record(questionID)
	if rec == nil {
		return
	}
	rec.Review = rec.Review.Next(correct, elapsed, now)
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := &State{
		Questions:    make(map[string]*MasteryRecord, len(s.Questions)),
		TotalAnswers: s.TotalAnswers,
		TotalCorrect: s.TotalCorrect,
	}
	for id, rec := range s.Questions {
		cp := *rec
		cp.WrongChoices = slices.Clone(rec.WrongChoices)
		if rec.LastAnsweredAt != nil {
			t := *rec.LastAnsweredAt
			cp.LastAnsweredAt = &t
		}
		if rec.Review.NextReviewAt != nil {
			t := *rec.Review.NextReviewAt
			cp.Review.NextReviewAt = &t
		}
		out.Questions[id] = &cp
	}
	return out
}
