package session

import (
	"time"

	"github.com/kihon/kuiz/internal/catalog"
)

// batchLoadedMsg is sent when the question batch has been fetched.
type batchLoadedMsg struct {
	Batch *catalog.Batch
	Err   error
}

// advanceMsg fires when an auto-advance delay has elapsed. Seq identifies
// the question it was scheduled for so stale timers are ignored.
type advanceMsg struct {
	Seq int
}

// clockTickMsg is sent every second to refresh the question timer.
type clockTickMsg time.Time
