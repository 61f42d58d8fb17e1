package ranking

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kittclouds/glyphsim/internal/logging"
)

// Scorer scores a pair of characters in [0,1].
type Scorer interface {
	Similarity(a, b string) float64
}

// CandidateIndex narrows the characters worth scoring against c to
// positions in the universe. Characters outside the set must score 0.
type CandidateIndex interface {
	Candidates(c string) *roaring.Bitmap
}

// Engine ranks every character of Universe against all others using a
// fixed number of workers, each owning one contiguous chunk.
type Engine struct {
	Universe []string
	Scorer   Scorer
	Cutoff   int
	Threads  int

	// Index is optional. When set, workers only score candidates; the
	// output is the same as the exhaustive scan.
	Index CandidateIndex

	// Progress is called after every ranked character, from worker goroutines.
	Progress func(done, total int64)

	// RunID names the run; a random UUID is used when empty.
	RunID string
}

// Run ranks the universe and writes one entry per character to sink.
// Writes are serialized by a single lock, one entry at a time; entries
// arrive in no particular order. Run returns once every worker is done.
// The caller owns the sink and closes it afterwards.
//
// The first sink error is fatal: workers stop taking new characters and
// Run returns that error.
func (e *Engine) Run(sink Sink) (*Run, error) {
	if e.Cutoff < 1 {
		return nil, fmt.Errorf("cutoff must be positive, got %d", e.Cutoff)
	}
	if e.Threads < 1 {
		return nil, fmt.Errorf("thread count must be positive, got %d", e.Threads)
	}
	if e.Scorer == nil || sink == nil {
		return nil, errors.New("ranking engine needs a scorer and a sink")
	}

	run := newRun(e.RunID, len(e.Universe), e.Progress)
	log := logging.Logger().With("run", run.ID)
	log.Info("ranking started", "characters", len(e.Universe), "threads", e.Threads, "cutoff", e.Cutoff, "index", e.Index != nil)

	var (
		mu       sync.Mutex
		firstErr error
		failed   atomic.Bool
		wg       sync.WaitGroup
	)
	emit := func(entry Entry) error {
		mu.Lock()
		defer mu.Unlock()
		return sink.Write(entry)
	}

	for w, chunk := range Partition(len(e.Universe), e.Threads) {
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			if err := e.work(run, start, end, emit, &failed); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("worker %d: %w", worker, err)
				}
				mu.Unlock()
				failed.Store(true)
			}
		}(w, chunk[0], chunk[1])
	}
	wg.Wait()

	run.FinishedAt = time.Now()
	if firstErr != nil {
		log.Error("ranking failed", "err", firstErr, "processed", run.Processed())
		return run, firstErr
	}
	log.Info("ranking finished", "processed", run.Processed(), "elapsed", run.Duration())
	return run, nil
}

// Partition splits n items into t contiguous [start, end) chunks of n/t
// items; the last chunk absorbs the remainder.
func Partition(n, t int) [][2]int {
	if t < 1 {
		t = 1
	}
	per := n / t
	chunks := make([][2]int, t)
	for i := 0; i < t; i++ {
		start := i * per
		end := start + per
		if i == t-1 {
			end = n
		}
		chunks[i] = [2]int{start, end}
	}
	return chunks
}

func (e *Engine) work(run *Run, start, end int, emit func(Entry) error, failed *atomic.Bool) error {
	// private buffers, sized to the whole universe
	scores := make([]float64, len(e.Universe))
	var order []int
	for i := start; i < end; i++ {
		if failed.Load() {
			return nil
		}
		order = e.score(i, scores, order[:0])
		if err := emit(e.entry(i, scores, order)); err != nil {
			return err
		}
		run.advance()
	}
	return nil
}

// score fills scores for row i and returns the indices with a positive score.
func (e *Engine) score(i int, scores []float64, positive []int) []int {
	c := e.Universe[i]
	if e.Index == nil {
		for j, other := range e.Universe {
			if j == i {
				scores[j] = 0
				continue
			}
			scores[j] = e.Scorer.Similarity(c, other)
			if scores[j] > 0 {
				positive = append(positive, j)
			}
		}
		return positive
	}

	clear(scores)
	it := e.Index.Candidates(c).Iterator()
	for it.HasNext() {
		j := int(it.Next())
		if j == i || j >= len(e.Universe) {
			continue
		}
		scores[j] = e.Scorer.Similarity(c, e.Universe[j])
		if scores[j] > 0 {
			positive = append(positive, j)
		}
	}
	sort.Ints(positive)
	return positive
}

func (e *Engine) entry(i int, scores []float64, positive []int) Entry {
	SortByScore(positive, scores)
	n := min(len(positive), e.Cutoff)
	entry := Entry{Character: e.Universe[i], Similar: make([]Match, n)}
	for k := 0; k < n; k++ {
		j := positive[k]
		entry.Similar[k] = Match{Character: e.Universe[j], Score: scores[j]}
	}
	return entry
}

// SortByScore stably orders indices by descending scores[index]; equal
// scores keep their incoming order.
func SortByScore(indices []int, scores []float64) {
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})
}

// Argsort returns 0..len(scores)-1 ordered by descending score, ties by index.
func Argsort(scores []float64, order []int) []int {
	order = order[:0]
	for j := range scores {
		order = append(order, j)
	}
	SortByScore(order, scores)
	return order
}
