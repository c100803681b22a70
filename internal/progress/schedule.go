package progress

import "time"

const (
	// InitialEase is the ease factor of a question that was never reviewed.
	InitialEase = 2.5

	// MinEase is the lowest ease factor a question can reach.
	MinEase = 1.3

	fastAnswer   = 5 * time.Second
	steadyAnswer = 12 * time.Second
)

// Review is the spaced review schedule of a question.
type Review struct {
	Repetitions  int        `json:"repetitions"`
	IntervalDays int        `json:"intervalDays"`
	Ease         float64    `json:"ease"`
	NextReviewAt *time.Time `json:"nextReviewAt,omitempty"`
}

// Quality grades an answer on the 0-5 scale. Wrong answers score 1, correct
// answers score by how quickly they were given.
func Quality(correct bool, elapsed time.Duration) int {
	if !correct {
		return 1
	}
	switch {
	case elapsed <= fastAnswer:
		return 5
	case elapsed <= steadyAnswer:
		return 4
	default:
		return 3
	}
}

// Next returns the schedule after one more answer.
func (r Review) Next(correct bool, elapsed time.Duration, now time.Time) Review {
	if elapsed < 0 {
		elapsed = 0
	}
	if r.Ease == 0 {
		r.Ease = InitialEase
	}
	if r.IntervalDays == 0 {
		r.IntervalDays = 1
	}

	q := float64(5 - Quality(correct, elapsed))
	r.Ease += 0.1 - q*(0.08+q*0.02)
	if r.Ease < MinEase {
		r.Ease = MinEase
	}

	if Quality(correct, elapsed) < 3 {
		r.Repetitions = 0
		r.IntervalDays = 1
	} else {
		r.Repetitions++
		switch r.Repetitions {
		case 1:
			r.IntervalDays = 1
		case 2:
			r.IntervalDays = 6
		default:
			r.IntervalDays = int(float64(r.IntervalDays) * r.Ease)
		}
	}

	next := now.UTC().AddDate(0, 0, r.IntervalDays)
	r.NextReviewAt = &next
	return r
}

// IsDue reports whether the question is due for review at now.
func (r Review) IsDue(now time.Time) bool {
	return r.NextReviewAt != nil && !now.Before(*r.NextReviewAt)
}
