package screen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/quiz"
	"github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/store"
)

// DefaultTimeout bounds a single catalog or sync call started from a screen.
const DefaultTimeout = 15 * time.Second

// Deps are the services shared by all screens.
type Deps struct {
	Runner *session.Runner

	// Loader fetches the questions of a session.
	Loader catalog.Loader

	// Catalog returns the full local catalog for statistics.
	Catalog func(ctx context.Context) ([]quiz.Question, error)

	// Query carries the user id and batch limit for Loader.
	Query catalog.Query

	// Mode and Explain are the starting advance policy.
	Mode    session.Mode
	Explain bool

	// Journal is optional; the history screen is disabled without it.
	Journal JournalReader

	Timeout time.Duration
	Logger  *slog.Logger
}

// JournalReader reads the answer and session journal.
type JournalReader interface {
	QuerySessions(ctx context.Context, opts store.QueryOpts) ([]store.SessionRecord, error)
	QueryAnswers(ctx context.Context, opts store.QueryOpts) ([]store.AnswerRecord, error)
}

// Context returns a context bounded by the configured timeout.
func (d Deps) Context() (context.Context, context.CancelFunc) {
	t := d.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), t)
}

// Log returns the logger, or a discarding one.
func (d Deps) Log() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// SyncDoneMsg reports the end of a background result flush. It is
// delivered to whichever screen is active when the flush finishes.
type SyncDoneMsg struct {
	Sent int
	Err  error
}

// SyncCmd flushes buffered results off the update loop.
func (d Deps) SyncCmd() tea.Cmd {
	if d.Runner == nil {
		return nil
	}
	runner := d.Runner
	return func() tea.Msg {
		ctx, cancel := d.Context()
		defer cancel()
		n, err := runner.Sync(ctx)
		if err != nil {
			d.Log().Warn("sync results", "error", err)
		}
		return SyncDoneMsg{Sent: n, Err: err}
	}
}

// SyncStatus renders a one-line description of a finished flush.
func SyncStatus(msg SyncDoneMsg) string {
	switch {
	case msg.Err != nil:
		return "結果の送信に失敗しました (次回再送します)"
	case msg.Sent > 0:
		return fmt.Sprintf("%d件の結果を送信しました", msg.Sent)
	}
	return ""
}
