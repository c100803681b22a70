package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(questionStructLevel, Question{})
	return v
}

// questionStructLevel enforces that Answer indexes into Options.
func questionStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	if q.Answer >= len(q.Options) {
		sl.ReportError(q.Answer, "Answer", "answer", "answerindex", fmt.Sprint(len(q.Options)))
	}
}

// ValidationError lists the fields of a question that failed validation.
type ValidationError struct {
	QuestionID string
	Fields     []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid question %q: %s", e.QuestionID, strings.Join(e.Fields, ", "))
}

// Validate checks the invariants of a normalized question.
func Validate(q Question) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{QuestionID: q.ID}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return ve
}
