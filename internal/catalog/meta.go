package catalog

import (
	"context"

	"github.com/kihon/kuiz/internal/quiz"
)

// CategoryCount is the number of questions in one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Meta describes a catalog for display.
type Meta struct {
	TotalQuestions int             `json:"totalQuestions"`
	Categories     []CategoryCount `json:"categories"`
}

// MetaSource supplies catalog metadata. Failures are for display only and
// callers ignore them.
type MetaSource interface {
	FetchMeta(ctx context.Context) (*Meta, error)
}

// Summarize counts questions per category, known categories first.
func Summarize(qs []quiz.Question) *Meta {
	counts := make(map[quiz.Category]int)
	var extra []quiz.Category
	for _, q := range qs {
		if _, ok := counts[q.Category]; !ok && !known(q.Category) {
			extra = append(extra, q.Category)
		}
		counts[q.Category]++
	}

	m := &Meta{TotalQuestions: len(qs)}
	for _, c := range append(quiz.Categories(), extra...) {
		if n := counts[c]; n > 0 {
			m.Categories = append(m.Categories, CategoryCount{Name: string(c), Count: n})
		}
	}
	return m
}

func known(c quiz.Category) bool {
	for _, k := range quiz.Categories() {
		if k == c {
			return true
		}
	}
	return false
}
