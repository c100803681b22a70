// Package progress tracks per-question mastery across sessions and derives
// accuracy and pass-rate statistics from it.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// StorageKey is the fixed key the serialized State lives under.
const StorageKey = "kuiz.progress.v1"

// CorruptError reports stored progress that could not be decoded.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("progress %s is corrupt: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Store loads and saves a State through a KV backend.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore creates a Store over kv. A nil logger discards warnings.
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger}
}

// Load returns the persisted state. It never fails: a missing entry, an
// unreachable backend or corrupt data all yield an empty state, and the
// latter two are logged.
func (s *Store) Load(ctx context.Context) *State {
	state, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("progress reset to empty state", "key", StorageKey, "error", err)
		return NewState()
	}
	return state
}

func (s *Store) load(ctx context.Context) (*State, error) {
	data, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	return Decode(data)
}

// Save persists state. The write is atomic from the caller's view.
func (s *Store) Save(ctx context.Context, state *State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Reset removes all stored progress.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// Encode serializes a State.
func Encode(state *State) ([]byte, error) {
	if state == nil {
		state = NewState()
	}
	if state.Questions == nil {
		state.Questions = make(map[string]*MasteryRecord)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode progress: %w", err)
	}
	return data, nil
}

// Decode parses a serialized State, rejecting values that break its
// invariants.
func Decode(data []byte) (*State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, &CorruptError{Key: StorageKey, Err: err}
	}
	if state.TotalAnswers < 0 || state.TotalCorrect < 0 {
		return nil, &CorruptError{Key: StorageKey, Err: errors.New("negative aggregate")}
	}
	if state.Questions == nil {
		state.Questions = make(map[string]*MasteryRecord)
	}
	for id, rec := range state.Questions {
		if rec == nil {
			delete(state.Questions, id)
			continue
		}
		if rec.CorrectCount < 0 || rec.WrongCount < 0 {
			return nil, &CorruptError{Key: StorageKey, Err: fmt.Errorf("negative count for %s", id)}
		}
	}
	return &state, nil
}
