package quiz

import (
	"fmt"
	"strings"
)

// Category is the exam a question belongs to. The values are the labels
// used by the question data files and the remote API.
type Category string

const (
	CategoryBasicIT    Category = "基本情報"
	CategoryITPassport Category = "ITパスポート"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{CategoryBasicIT, CategoryITPassport}
}

// ParseCategory accepts the canonical labels plus a few ASCII aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(CategoryBasicIT), "basicit", "basic-it", "kihon", "fe":
		return CategoryBasicIT, nil
	case strings.ToLower(string(CategoryITPassport)), "itpassport", "it-passport", "passport", "ip":
		return CategoryITPassport, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Slug returns an ASCII identifier for the category.
func (c Category) Slug() string {
	switch c {
	case CategoryBasicIT:
		return "basic-it"
	case CategoryITPassport:
		return "it-passport"
	}
	return "unknown"
}

// Question is a normalized multiple-choice question. Answer is an index
// into Options.
type Question struct {
	ID          string   `json:"id" validate:"required"`
	Category    Category `json:"category" validate:"required,oneof=基本情報 ITパスポート"`
	Text        string   `json:"question"`
	Options     []string `json:"options" validate:"min=2"`
	Answer      int      `json:"answer" validate:"gte=0"`
	Explanation *string  `json:"explanation,omitempty"`
}

// IsCorrect reports whether the option at the original index is the answer.
func (q Question) IsCorrect(original int) bool {
	return original == q.Answer
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return ""
	}
	return q.Options[q.Answer]
}

// NoExplanation is shown when a question has no explanation.
const NoExplanation = "解説はまだ用意されていません。"

// ExplanationText returns the explanation or an empty string.
func (q Question) ExplanationText() string {
	if q.Explanation == nil {
		return ""
	}
	return *q.Explanation
}

// PassChoice is the choice recorded when a question is passed.
const PassChoice = -1

// AnswerEvent is a single answered or passed question, as sent to the
// result sync endpoint.
type AnswerEvent struct {
	QuestionID string `json:"questionId"`
	Choice     int    `json:"choice"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// IsPass reports whether the event records a pass.
func (e AnswerEvent) IsPass() bool {
	return e.Choice == PassChoice
}
