package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/kihon/kuiz/internal/quiz"
)

// importBatch bounds the rows per insert statement, for questions and the
// outbox, to stay under SQLite's bound-parameter limit.
const importBatch = 100

// ReplaceQuestions swaps the imported catalog for qs in one transaction.
func (s *Store) ReplaceQuestions(ctx context.Context, qs []quiz.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Delete(questionTable.Name).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for start := 0; start < len(qs); start += importBatch {
		end := min(start+importBatch, len(qs))
		ins := builder().Insert(questionTable.Name).
			Columns("question_id", "category", "text", "options", "answer", "explanation")
		for _, q := range qs[start:end] {
			opts, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("encode options of %s: %w", q.ID, err)
			}
			var expl any
			if q.Explanation != nil {
				expl = *q.Explanation
			}
			ins.Values(q.ID, string(q.Category), q.Text, opts, q.Answer, expl)
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
	}
	return tx.Commit()
}

// ListQuestions returns the imported catalog in import order. It
// implements catalog.Lister.
func (s *Store) ListQuestions(ctx context.Context) ([]quiz.Question, error) {
	query, args := builder().
		Select("question_id", "category", "text", "options", "answer", "explanation").
		From(builder().Table(questionTable.Name)).
		OrderBy("id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []quiz.Question
	for rows.Next() {
		var (
			q    quiz.Question
			cat  string
			opts []byte
			expl sql.NullString
		)
		if err := rows.Scan(&q.ID, &cat, &q.Text, &opts, &q.Answer, &expl); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(opts, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
		q.Category = quiz.Category(cat)
		if expl.Valid {
			q.Explanation = &expl.String
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CountQuestions returns the number of imported questions.
func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	query, args := builder().Select(entsql.Count("*")).From(builder().Table(questionTable.Name)).Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
