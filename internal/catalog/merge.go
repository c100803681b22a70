package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kihon/kuiz/internal/quiz"
)

// MergedItem is a record in a merged data file. Answers are 1-based, the
// form the loader reads back.
type MergedItem struct {
	ID          int      `json:"id"`
	Category    string   `json:"category"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation *string  `json:"explanation"`
}

// Merge renumbers questions with sequential ids starting at 1.
func Merge(sets ...[]quiz.Question) []MergedItem {
	var out []MergedItem
	for _, qs := range sets {
		for _, q := range qs {
			out = append(out, MergedItem{
				ID:          len(out) + 1,
				Category:    string(q.Category),
				Question:    q.Text,
				Options:     q.Options,
				Answer:      q.Answer + 1,
				Explanation: q.Explanation,
			})
		}
	}
	return out
}

// WriteMerged writes items as an indented JSON array without escaping
// non-ASCII text.
func WriteMerged(w io.Writer, items []MergedItem) error {
	if items == nil {
		items = []MergedItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("write merged questions: %w", err)
	}
	return nil
}
