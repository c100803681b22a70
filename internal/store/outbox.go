package store

import (
	"context"
	"fmt"

	"github.com/kihon/kuiz/internal/quiz"
)

// SavePending replaces the journaled outbox with events. It implements
// outbox.Persister.
func (s *Store) SavePending(ctx context.Context, events []quiz.AnswerEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Delete(outboxTable.Name).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear outbox: %w", err)
	}

	for start := 0; start < len(events); start += importBatch {
		end := min(start+importBatch, len(events))
		ins := builder().Insert(outboxTable.Name).Columns("position", "question_id", "choice", "elapsed_ms")
		for i, ev := range events[start:end] {
			ins.Values(start+i, ev.QuestionID, ev.Choice, ev.ElapsedMs)
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("write outbox: %w", err)
		}
	}
	return tx.Commit()
}

// LoadPending returns the journaled outbox in answer order. It implements
// outbox.Persister.
func (s *Store) LoadPending(ctx context.Context) ([]quiz.AnswerEvent, error) {
	query, args := builder().Select("question_id", "choice", "elapsed_ms").
		From(builder().Table(outboxTable.Name)).
		OrderBy("position").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []quiz.AnswerEvent
	for rows.Next() {
		var ev quiz.AnswerEvent
		if err := rows.Scan(&ev.QuestionID, &ev.Choice, &ev.ElapsedMs); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
