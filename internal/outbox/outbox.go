// Package outbox buffers answer events in answer order and delivers them to a
// sync sink. Events leave the buffer only after the sink acknowledges them,
// which gives at-least-once delivery.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/kihon/kuiz/internal/quiz"
)

// Batch is one submission to a sink.
type Batch struct {
	UserID  string             `json:"userId"`
	Results []quiz.AnswerEvent `json:"results"`
}

// Sink receives batches of answer events. A nil error is the acknowledgement.
type Sink interface {
	Submit(ctx context.Context, batch Batch) error
}

// Persister keeps the pending events durable across restarts.
type Persister interface {
	SavePending(ctx context.Context, events []quiz.AnswerEvent) error
	LoadPending(ctx context.Context) ([]quiz.AnswerEvent, error)
}

// SyncError reports a flush the sink did not acknowledge. The events stay
// pending.
type SyncError struct {
	Pending int
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %d results: %v", e.Pending, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithPersister journals pending events through p.
func WithPersister(p Persister) Option {
	return func(b *Buffer) { b.persister = p }
}

// WithLogger sets the logger used for journal failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Buffer) { b.logger = l }
}

// Buffer is the ordered pending-event buffer. It is safe for concurrent use;
// flushes are serialized.
type Buffer struct {
	userID    string
	sink      Sink
	persister Persister
	logger    *slog.Logger

	flushMu sync.Mutex
	// persistMu spans a change to pending and the journal write of its
	// result, so journal writes land in the order the changes happened.
	persistMu sync.Mutex
	mu        sync.Mutex
	pending   []quiz.AnswerEvent
}

// New creates a Buffer that submits on behalf of userID.
func New(userID string, sink Sink, opts ...Option) *Buffer {
	b := &Buffer{userID: userID, sink: sink}
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.sink == nil {
		b.sink = Discard{}
	}
	return b
}

// Restore prepends events left pending by a previous process.
func (b *Buffer) Restore(ctx context.Context) (int, error) {
	if b.persister == nil {
		return 0, nil
	}
	events, err := b.persister.LoadPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore pending results: %w", err)
	}
	b.mu.Lock()
	b.pending = append(events, b.pending...)
	b.mu.Unlock()
	return len(events), nil
}

// Append adds an event at the end of the buffer.
func (b *Buffer) Append(ctx context.Context, ev quiz.AnswerEvent) {
	b.persistMu.Lock()
	defer b.persistMu.Unlock()

	b.mu.Lock()
	b.pending = append(b.pending, ev)
	snapshot := slices.Clone(b.pending)
	b.mu.Unlock()
	b.persist(ctx, snapshot)
}

// Pending returns a copy of the buffered events in order.
func (b *Buffer) Pending() []quiz.AnswerEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.pending)
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush submits every pending event in one batch. On acknowledgement exactly
// the submitted events are removed; events appended during the flush stay
// queued. On failure nothing is removed and a *SyncError is returned.
func (b *Buffer) Flush(ctx context.Context) (int, error) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	batch := b.Pending()
	if len(batch) == 0 {
		return 0, nil
	}

	if err := b.sink.Submit(ctx, Batch{UserID: b.userID, Results: batch}); err != nil {
		return 0, &SyncError{Pending: len(batch), Err: err}
	}

	b.persistMu.Lock()
	defer b.persistMu.Unlock()

	b.mu.Lock()
	b.pending = slices.Clone(b.pending[len(batch):])
	snapshot := slices.Clone(b.pending)
	b.mu.Unlock()
	b.persist(ctx, snapshot)
	return len(batch), nil
}

func (b *Buffer) persist(ctx context.Context, events []quiz.AnswerEvent) {
	if b.persister == nil {
		return
	}
	if err := b.persister.SavePending(ctx, events); err != nil {
		b.logger.Warn("journal pending results", "count", len(events), "error", err)
	}
}

// Discard acknowledges every batch without sending it anywhere. It is the
// sink used when no sync target is configured.
type Discard struct{}

func (Discard) Submit(context.Context, Batch) error { return nil }

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, batch Batch) error

func (f SinkFunc) Submit(ctx context.Context, batch Batch) error { return f(ctx, batch) }
