package session

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/progress"
	"github.com/kihon/kuiz/internal/quiz"
)

// BuildQueue selects and orders the questions of a session. It returns a
// new slice and never modifies catalog or state. An empty result means
// there is nothing to practise and is not an error.
func BuildQueue(catalog []quiz.Question, state *progress.State, opts Options, rng *rand.Rand) []quiz.Question {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	queue := make([]quiz.Question, 0, len(catalog))
	for _, q := range catalog {
		if keep(state.Record(q.ID), opts) {
			queue = append(queue, q)
		}
	}

	switch {
	case opts.PrioritizeMisses:
		prioritizeMisses(queue, state, rng)
	case opts.RandomOrder:
		rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
	}

	if opts.Limit > 0 && len(queue) > opts.Limit {
		queue = queue[:opts.Limit:opts.Limit]
	}
	return queue
}

func keep(rec *progress.MasteryRecord, opts Options) bool {
	if opts.AvoidCorrect && rec.Mastered() {
		return false
	}
	if opts.WrongOnly && !rec.Struggling() {
		return false
	}
	return true
}

// prioritizeMisses shuffles first so that the stable sort leaves equal wrong
// counts in random order.
func prioritizeMisses(queue []quiz.Question, state *progress.State, rng *rand.Rand) {
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	slices.SortStableFunc(queue, func(a, b quiz.Question) int {
		return cmp.Compare(wrongCount(state, b.ID), wrongCount(state, a.ID))
	})
}

func wrongCount(state *progress.State, id string) int {
	if rec := state.Record(id); rec != nil {
		return rec.WrongCount
	}
	return 0
}

// QueueFromBatch builds the queue for a loaded batch. A remote batch was
// selected server-side and is used as sent, capped at opts.Limit. Local
// batches go through BuildQueue with misses first.
func QueueFromBatch(batch *catalog.Batch, state *progress.State, opts Options, rng *rand.Rand) []quiz.Question {
	if batch == nil {
		return nil
	}
	if batch.Filtered() {
		queue := slices.Clone(batch.Questions)
		if opts.Limit > 0 && len(queue) > opts.Limit {
			queue = queue[:opts.Limit:opts.Limit]
		}
		return queue
	}
	opts.PrioritizeMisses = true
	return BuildQueue(batch.Questions, state, opts, rng)
}
