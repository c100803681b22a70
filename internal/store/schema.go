package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions for auto-migration. Every table has an integer id so
// rows keep insertion order; event tables additionally carry the global
// sequence.

var (
	kvColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString, Unique: true},
		{Name: "value", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	kvTable = &schema.Table{
		Name:       "kv",
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	answerEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "category", Type: field.TypeString},
		{Name: "choice", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeBool},
		{Name: "elapsed_ms", Type: field.TypeInt64},
	}
	answerEventTable = &schema.Table{
		Name:       "answer_events",
		Columns:    answerEventColumns,
		PrimaryKey: []*schema.Column{answerEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answerevent_question_id", Columns: []*schema.Column{answerEventColumns[4]}},
			{Name: "answerevent_session_id", Columns: []*schema.Column{answerEventColumns[3]}},
		},
	}

	sessionEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "session_id", Type: field.TypeString},
		{Name: "action", Type: field.TypeString},
		{Name: "questions", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeInt},
		{Name: "wrong", Type: field.TypeInt},
		{Name: "passed", Type: field.TypeInt},
	}
	sessionEventTable = &schema.Table{
		Name:       "session_events",
		Columns:    sessionEventColumns,
		PrimaryKey: []*schema.Column{sessionEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessionevent_session_id", Columns: []*schema.Column{sessionEventColumns[3]}},
		},
	}

	outboxColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "position", Type: field.TypeInt},
		{Name: "question_id", Type: field.TypeString},
		{Name: "choice", Type: field.TypeInt},
		{Name: "elapsed_ms", Type: field.TypeInt64},
	}
	outboxTable = &schema.Table{
		Name:       "outbox",
		Columns:    outboxColumns,
		PrimaryKey: []*schema.Column{outboxColumns[0]},
	}

	questionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "question_id", Type: field.TypeString, Unique: true},
		{Name: "category", Type: field.TypeString},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "options", Type: field.TypeJSON},
		{Name: "answer", Type: field.TypeInt},
		{Name: "explanation", Type: field.TypeString, Nullable: true, Size: 2147483647},
	}
	questionTable = &schema.Table{
		Name:       "questions",
		Columns:    questionColumns,
		PrimaryKey: []*schema.Column{questionColumns[0]},
	}

	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	sequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	tables = []*schema.Table{
		kvTable,
		answerEventTable,
		sessionEventTable,
		outboxTable,
		questionTable,
		sequenceTable,
	}
)
