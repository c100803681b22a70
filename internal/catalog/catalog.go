// Package catalog supplies the question list a session is built from. A
// Chain tries the remote batch service first and falls back to locally
// imported questions and finally to the static data files.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kihon/kuiz/internal/quiz"
)

// ErrUnavailable means no source could supply questions.
var ErrUnavailable = errors.New("failed to fetch question set")

// Origin names where a batch came from.
type Origin string

const (
	OriginRemote   Origin = "remote"
	OriginDatabase Origin = "database"
	OriginFiles    Origin = "files"
)

// Query carries the selection hints a remote source can apply server-side.
// Local sources return their whole catalog and leave selection to the
// session planner.
type Query struct {
	UserID       string
	Limit        int
	WrongOnly    bool
	AvoidCorrect bool
	Random       bool
}

// Batch is a list of normalized questions and where it came from.
type Batch struct {
	Questions []quiz.Question
	Origin    Origin
}

// Filtered reports whether the source already applied the query's filters.
func (b *Batch) Filtered() bool {
	return b.Origin == OriginRemote
}

// Loader supplies questions.
type Loader interface {
	Load(ctx context.Context, q Query) (*Batch, error)
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(ctx context.Context, q Query) (*Batch, error)

func (f LoaderFunc) Load(ctx context.Context, q Query) (*Batch, error) { return f(ctx, q) }

// Chain tries loaders in order and returns the first batch that loads.
type Chain struct {
	loaders []Loader
	logger  *slog.Logger
}

// NewChain creates a Chain. Nil loaders are skipped.
func NewChain(logger *slog.Logger, loaders ...Loader) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Chain{logger: logger}
	for _, l := range loaders {
		if l != nil {
			c.loaders = append(c.loaders, l)
		}
	}
	return c
}

// Load returns the first successful batch. When every loader fails the
// error wraps ErrUnavailable together with each loader's error.
func (c *Chain) Load(ctx context.Context, q Query) (*Batch, error) {
	var errs []error
	for i, l := range c.loaders {
		b, err := l.Load(ctx, q)
		if err == nil {
			if i > 0 {
				c.logger.Info("catalog fallback", "origin", b.Origin, "questions", len(b.Questions))
			}
			return b, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("catalog source failed", "source", i, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// Lister lists stored questions.
type Lister interface {
	ListQuestions(ctx context.Context) ([]quiz.Question, error)
}

// DatabaseLoader serves questions imported into the local database. An
// empty table counts as unavailable so the chain moves on.
type DatabaseLoader struct {
	Lister Lister
}

func (d DatabaseLoader) Load(ctx context.Context, _ Query) (*Batch, error) {
	qs, err := d.Lister.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imported questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, errors.New("no imported questions")
	}
	return &Batch{Questions: qs, Origin: OriginDatabase}, nil
}
