// Package export writes learner progress to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/quiz"
)

// Sheet names.
const (
	SummarySheet    = "Summary"
	CategoriesSheet = "Categories"
	QuestionsSheet  = "Questions"
)

const timeLayout = "2006-01-02 15:04:05"

// Report is everything that goes into a workbook.
type Report struct {
	UserID      string
	GeneratedAt time.Time
	Catalog     []quiz.Question
	State       *progress.State
}

// Workbook builds the workbook for r. The caller closes the file.
func Workbook(r Report) (*excelize.File, error) {
	if r.State == nil {
		r.State = progress.NewState()
	}
	stats := progress.ComputeStats(r.State, r.Catalog, r.GeneratedAt)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{CategoriesSheet, QuestionsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
	}

	summary := [][]any{
		{"User", r.UserID},
		{"Generated", r.GeneratedAt.Format(timeLayout)},
		{"Questions", stats.TotalQuestions},
		{"Answers", stats.TotalAnswers},
		{"Correct", stats.TotalCorrect},
		{"Accuracy", stats.Accuracy},
		{"Pass rate", stats.PassRate},
		{"Mastered", stats.Mastered},
		{"Mastery rate", stats.MasteryRate},
		{"Due for review", stats.Due},
	}
	if err := writeRows(f, SummarySheet, nil, summary); err != nil {
		f.Close()
		return nil, err
	}

	var cats [][]any
	for _, cs := range stats.Categories {
		cats = append(cats, []any{string(cs.Category), cs.Questions, cs.Attempted, cs.Mastered, cs.PassRate})
	}
	if err := writeRows(f, CategoriesSheet,
		[]string{"Category", "Questions", "Attempted", "Mastered", "Pass rate"}, cats); err != nil {
		f.Close()
		return nil, err
	}

	var qs [][]any
	for _, q := range r.Catalog {
		rec := r.State.Record(q.ID)
		row := []any{q.ID, string(q.Category), q.Text, q.CorrectOption(), 0, 0, "", ""}
		if rec != nil {
			row[4] = rec.CorrectCount
			row[5] = rec.WrongCount
			if rec.LastAnsweredAt != nil {
				row[6] = rec.LastAnsweredAt.Format(timeLayout)
			}
			if rec.Review.NextReviewAt != nil {
				row[7] = rec.Review.NextReviewAt.Format(timeLayout)
			}
		}
		qs = append(qs, row)
	}
	if err := writeRows(f, QuestionsSheet,
		[]string{"ID", "Category", "Question", "Answer", "Correct", "Wrong", "Last answered", "Next review"}, qs); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook for r and writes it to w.
func Write(w io.Writer, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	row := 1
	if len(headers) > 0 {
		for i, h := range headers {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return fmt.Errorf("write %s header: %w", sheet, err)
			}
		}
		row++
	}
	for _, values := range rows {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, row, err)
			}
		}
		row++
	}
	return nil
}
