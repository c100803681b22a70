package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kihon/kuiz/internal/quiz"
)

type recordingSink struct {
	mu      sync.Mutex
	batches []Batch
	err     error
	during  func()
}

func (s *recordingSink) Submit(_ context.Context, b Batch) error {
	if s.during != nil {
		s.during()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

type memPersister struct {
	saved []quiz.AnswerEvent
	err   error
}

func (m *memPersister) SavePending(_ context.Context, ev []quiz.AnswerEvent) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append([]quiz.AnswerEvent(nil), ev...)
	return nil
}

func (m *memPersister) LoadPending(context.Context) ([]quiz.AnswerEvent, error) {
	return append([]quiz.AnswerEvent(nil), m.saved...), m.err
}

func ev(id string, choice int) quiz.AnswerEvent {
	return quiz.AnswerEvent{QuestionID: id, Choice: choice, ElapsedMs: 100}
}

func TestFlush_SendsInOrderAndClears(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	b := New("demo-user", sink)

	b.Append(ctx, ev("a", 0))
	b.Append(ctx, ev("b", quiz.PassChoice))
	b.Append(ctx, ev("c", 2))

	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, b.Len())

	require.Len(t, sink.batches, 1)
	assert.Equal(t, "demo-user", sink.batches[0].UserID)
	assert.Equal(t, []quiz.AnswerEvent{ev("a", 0), ev("b", -1), ev("c", 2)}, sink.batches[0].Results)
}

func TestFlush_FailureRetainsEvents(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{err: errors.New("503")}
	b := New("demo-user", sink)
	b.Append(ctx, ev("a", 0))
	b.Append(ctx, ev("b", 1))

	n, err := b.Flush(ctx)
	assert.Zero(t, n)
	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Pending)
	assert.Equal(t, []quiz.AnswerEvent{ev("a", 0), ev("b", 1)}, b.Pending())

	// Retried on the next trigger, with later events appended behind.
	sink.err = nil
	b.Append(ctx, ev("c", 0))
	_, err = b.Flush(ctx)
	require.NoError(t, err)
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0].Results, 3)
	assert.Equal(t, "a", sink.batches[0].Results[0].QuestionID)
}

func TestFlush_KeepsEventsAppendedDuringSubmit(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	b := New("u", sink)
	sink.during = func() {
		sink.during = nil
		b.Append(ctx, ev("late", 1))
	}
	b.Append(ctx, ev("early", 0))

	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []quiz.AnswerEvent{ev("late", 1)}, b.Pending())
}

func TestFlush_EmptyIsNoop(t *testing.T) {
	sink := &recordingSink{}
	n, err := New("u", sink).Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.batches)
}

func TestPersister_RestoresAcrossBuffers(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	failing := &recordingSink{err: errors.New("offline")}

	first := New("u", failing, WithPersister(p))
	first.Append(ctx, ev("a", 0))
	first.Append(ctx, ev("b", 1))
	_, err := first.Flush(ctx)
	require.Error(t, err)
	assert.Len(t, p.saved, 2)

	sink := &recordingSink{}
	second := New("u", sink, WithPersister(p))
	n, err := second.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = second.Flush(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.saved)
	assert.Equal(t, []quiz.AnswerEvent{ev("a", 0), ev("b", 1)}, sink.batches[0].Results)
}

// gatedPersister blocks the first save of an empty journal until release
// is closed.
type gatedPersister struct {
	mu      sync.Mutex
	saved   []quiz.AnswerEvent
	blocked chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedPersister) SavePending(_ context.Context, events []quiz.AnswerEvent) error {
	if len(events) == 0 {
		g.once.Do(func() {
			close(g.blocked)
			<-g.release
		})
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = append([]quiz.AnswerEvent(nil), events...)
	return nil
}

func (g *gatedPersister) LoadPending(context.Context) ([]quiz.AnswerEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]quiz.AnswerEvent(nil), g.saved...), nil
}

func TestPersister_AppendDuringFlushJournalWrite(t *testing.T) {
	ctx := context.Background()
	p := &gatedPersister{blocked: make(chan struct{}), release: make(chan struct{})}
	b := New("u", &recordingSink{}, WithPersister(p))
	b.Append(ctx, ev("a", 0))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := b.Flush(ctx)
		assert.NoError(t, err)
	}()
	<-p.blocked

	appending := make(chan struct{})
	go func() {
		defer wg.Done()
		close(appending)
		b.Append(ctx, ev("e", 1))
	}()
	<-appending
	time.Sleep(20 * time.Millisecond)
	close(p.release)
	wg.Wait()

	journal, err := p.LoadPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []quiz.AnswerEvent{ev("e", 1)}, b.Pending())
	assert.Equal(t, b.Pending(), journal)
}

func TestDiscardAcknowledges(t *testing.T) {
	ctx := context.Background()
	b := New("u", nil)
	b.Append(ctx, ev("a", 0))
	n, err := b.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSinkFunc(t *testing.T) {
	var got Batch
	s := SinkFunc(func(_ context.Context, b Batch) error { got = b; return nil })
	require.NoError(t, s.Submit(context.Background(), Batch{UserID: "x"}))
	assert.Equal(t, "x", got.UserID)
}
