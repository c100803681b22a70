package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/kihon/kuiz/internal/quiz"
	"github.com/kihon/kuiz/internal/session"
)

// AppendAnswer journals one answer or pass. It implements session.Journal.
func (s *Store) AppendAnswer(ctx context.Context, e session.AnswerEntry) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := builder().Insert(answerEventTable.Name).
		Columns("sequence", "timestamp", "session_id", "question_id", "category", "choice", "correct", "elapsed_ms").
		Values(seqNum, e.At.UnixMilli(), e.SessionID, e.QuestionID, string(e.Category), e.Choice, e.Correct, e.ElapsedMs).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

// AppendSession journals one session lifecycle event. It implements
// session.Journal.
func (s *Store) AppendSession(ctx context.Context, e session.SessionEntry) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := builder().Insert(sessionEventTable.Name).
		Columns("sequence", "timestamp", "session_id", "action", "questions", "correct", "wrong", "passed").
		Values(seqNum, e.At.UnixMilli(), e.SessionID, e.Action, e.Questions, e.Correct, e.Wrong, e.Passed).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// QueryAnswers returns journaled answers, newest first.
func (s *Store) QueryAnswers(ctx context.Context, opts QueryOpts) ([]AnswerRecord, error) {
	sel := builder().
		Select("sequence", "timestamp", "session_id", "question_id", "category", "choice", "correct", "elapsed_ms").
		From(builder().Table(answerEventTable.Name))
	applyOpts(sel, opts)

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var out []AnswerRecord
	for rows.Next() {
		var (
			r   AnswerRecord
			ts  int64
			cat string
		)
		if err := rows.Scan(&r.Sequence, &ts, &r.SessionID, &r.QuestionID, &cat, &r.Choice, &r.Correct, &r.ElapsedMs); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		r.Timestamp = time.UnixMilli(ts).UTC()
		r.Category = quiz.Category(cat)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QuerySessions returns journaled session events, newest first.
func (s *Store) QuerySessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error) {
	sel := builder().
		Select("sequence", "timestamp", "session_id", "action", "questions", "correct", "wrong", "passed").
		From(builder().Table(sessionEventTable.Name))
	applyOpts(sel, opts)

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			r  SessionRecord
			ts int64
		)
		if err := rows.Scan(&r.Sequence, &ts, &r.SessionID, &r.Action, &r.Questions, &r.Correct, &r.Wrong, &r.Passed); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		r.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func applyOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if opts.SessionID != "" {
		sel.Where(entsql.EQ("session_id", opts.SessionID))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
