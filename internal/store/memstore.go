package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/kittclouds/glyphsim/pkg/ranking"
)

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu          sync.RWMutex
	runs        map[string]*Run
	rankings    map[string]map[string]ranking.Entry
	evaluations map[string]*Evaluation
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:        make(map[string]*Run),
		rankings:    make(map[string]map[string]ranking.Entry),
		evaluations: make(map[string]*Evaluation),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// Runs
// =============================================================================

func (s *MemStore) CreateRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	copy := *run
	if copy.Status == "" {
		copy.Status = StatusRunning
	}
	s.runs[run.ID] = &copy
	return nil
}

func (s *MemStore) FinishRun(id string, processed int64, finishedAt int64, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("run %s not found", id)
	}
	run.Processed = processed
	run.FinishedAt = &finishedAt
	run.Status, run.Error = finishStatus(runErr)
	return nil
}

func (s *MemStore) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if run, ok := s.runs[id]; ok {
		copy := *run
		if run.FinishedAt != nil {
			at := *run.FinishedAt
			copy.FinishedAt = &at
		}
		return &copy, nil
	}
	return nil, nil
}

// =============================================================================
// Rankings
// =============================================================================

func (s *MemStore) PutRanking(runID string, entry ranking.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byChar, ok := s.rankings[runID]
	if !ok {
		byChar = make(map[string]ranking.Entry)
		s.rankings[runID] = byChar
	}
	entry.Similar = slices.Clone(entry.Similar)
	byChar[entry.Character] = entry
	return nil
}

func (s *MemStore) GetRanking(runID, character string) (*ranking.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.rankings[runID][character]; ok {
		entry.Similar = slices.Clone(entry.Similar)
		return &entry, nil
	}
	return nil, nil
}

func (s *MemStore) ListRankings(runID string) ([]ranking.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ranking.Entry
	for _, entry := range s.rankings[runID] {
		entry.Similar = slices.Clone(entry.Similar)
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Character < result[j].Character
	})
	return result, nil
}

func (s *MemStore) CountRankings(runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rankings[runID]), nil
}

// =============================================================================
// Evaluations
// =============================================================================

func (s *MemStore) PutEvaluation(ev *Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *ev
	copy.Cases = slices.Clone(ev.Cases)
	s.evaluations[ev.RunID] = &copy
	return nil
}

func (s *MemStore) GetEvaluation(runID string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ev, ok := s.evaluations[runID]; ok {
		copy := *ev
		copy.Cases = slices.Clone(ev.Cases)
		return &copy, nil
	}
	return nil, nil
}

// =============================================================================
// Helpers
// =============================================================================

func finishStatus(runErr error) (status, msg string) {
	if runErr != nil {
		return StatusFailed, runErr.Error()
	}
	return StatusDone, ""
}

// ToJSON converts a store model to JSON bytes.
func ToJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// FromJSON parses JSON bytes into a store model.
func FromJSON[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
