package ranking

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Run is the state of one ranking run. It replaces process-wide progress
// counters: workers only touch Processed, atomically.
type Run struct {
	ID         string
	Total      int64
	StartedAt  time.Time
	FinishedAt time.Time

	processed atomic.Int64
	progress  func(done, total int64)
}

func newRun(id string, total int, progress func(done, total int64)) *Run {
	if id == "" {
		id = uuid.NewString()
	}
	return &Run{
		ID:        id,
		Total:     int64(total),
		StartedAt: time.Now(),
		progress:  progress,
	}
}

// Processed returns how many characters have been ranked so far.
func (r *Run) Processed() int64 { return r.processed.Load() }

// Duration returns the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Run) advance() {
	done := r.processed.Add(1)
	if r.progress != nil {
		r.progress(done, r.Total)
	}
}
