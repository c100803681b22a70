package catalog

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kihon/kuiz/internal/quiz"
)

// itemSchema describes the loosely shaped records found in data files.
const itemSchema = `{
  "type": "object",
  "required": ["question"],
  "anyOf": [
    {"required": ["options"]},
    {"required": ["choices"]}
  ],
  "properties": {
    "id": {"type": ["string", "integer", "null"]},
    "category": {"type": ["string", "null"]},
    "question": {"type": "string"},
    "options": {"type": "array", "items": {"type": "string"}},
    "choices": {"type": "array", "items": {"type": "string"}},
    "answer": {"type": ["string", "number", "null"]},
    "explanation": {"type": ["string", "null"]}
  }
}`

const itemSchemaURL = "schema://kuiz/item.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(itemSchema), &def); err != nil {
			schemaErr = fmt.Errorf("parse item schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(itemSchemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile(itemSchemaURL)
	})
	return schema, schemaErr
}

// rawItem is one record as it appears in a data file.
type rawItem struct {
	ID          any      `json:"id"`
	Category    *string  `json:"category"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Choices     []string `json:"choices"`
	Answer      any      `json:"answer"`
	Explanation *string  `json:"explanation"`
}

// ItemError reports a record that was skipped.
type ItemError struct {
	File  string
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s item %d: %v", e.File, e.Index+1, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// NormalizeItem validates one raw record of file at position index and
// converts it to a Question.
func NormalizeItem(file string, index int, raw json.RawMessage) (quiz.Question, error) {
	sch, err := compiledSchema()
	if err != nil {
		return quiz.Question{}, err
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return quiz.Question{}, &ItemError{File: file, Index: index, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := sch.Validate(parsed); err != nil {
		return quiz.Question{}, &ItemError{File: file, Index: index, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var item rawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return quiz.Question{}, &ItemError{File: file, Index: index, Err: err}
	}

	q := quiz.Question{
		ID:          normalizeID(item.ID, file, index),
		Category:    normalizeCategory(item.Category, file),
		Text:        item.Question,
		Options:     item.Options,
		Explanation: item.Explanation,
	}
	if len(q.Options) == 0 {
		q.Options = item.Choices
	}
	q.Answer = normalizeAnswer(item.Answer, q.Options)

	if err := quiz.Validate(q); err != nil {
		return quiz.Question{}, &ItemError{File: file, Index: index, Err: err}
	}
	return q, nil
}

// normalizeID stringifies numeric ids and falls back to <stem>_<n> when
// the id is missing, empty or zero.
func normalizeID(id any, file string, index int) string {
	switch v := id.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		if v != 0 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return fmt.Sprintf("%s_%d", fileStem(file), index+1)
}

// normalizeCategory uses the record's category when it names a known
// category, otherwise infers it from the file name.
func normalizeCategory(cat *string, file string) quiz.Category {
	if cat != nil && *cat != "" {
		if c, err := quiz.ParseCategory(*cat); err == nil {
			return c
		}
	}
	if strings.Contains(filepath.Base(file), "passpo") {
		return quiz.CategoryITPassport
	}
	return quiz.CategoryBasicIT
}

// normalizeAnswer accepts the text of the correct option, or a 1-based
// option number.
func normalizeAnswer(answer any, options []string) int {
	switch v := answer.(type) {
	case string:
		if i := slices.Index(options, v); i >= 0 {
			return i
		}
		return 0
	case float64:
		return max(0, int(v)-1)
	}
	return 0
}

func fileStem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
