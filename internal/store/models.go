// Package store persists ranking runs: run metadata, one ranking entry per
// character and evaluation reports.
package store

import (
	"github.com/kittclouds/glyphsim/pkg/evaluate"
	"github.com/kittclouds/glyphsim/pkg/ranking"
)

// Run status values.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run describes one invocation of the ranking engine or the evaluator.
type Run struct {
	ID         string `json:"id"`
	Command    string `json:"command"` // "create" | "evaluate"
	Cutoff     int    `json:"cutoff"`
	Threads    int    `json:"threads"`
	Characters int    `json:"characters"`
	Processed  int64  `json:"processed"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  int64  `json:"startedAt"`
	FinishedAt *int64 `json:"finishedAt,omitempty"`
}

// Evaluation is the stored summary of an evaluator report.
type Evaluation struct {
	RunID          string                `json:"runId"`
	Cases          []evaluate.CaseResult `json:"cases"`
	Skipped        int                   `json:"skipped"`
	MeanReciprocal float64               `json:"meanReciprocal"`
	MeanPosition   float64               `json:"meanPosition"`
	UnderThreshold float64               `json:"underThreshold"`
	References     int                   `json:"references"`
	Found          int                   `json:"found"`
	CreatedAt      int64                 `json:"createdAt"`
}

// NewEvaluation summarizes rep for storage under runID.
func NewEvaluation(runID string, rep evaluate.Report, createdAt int64) *Evaluation {
	return &Evaluation{
		RunID:          runID,
		Cases:          rep.Cases,
		Skipped:        len(rep.Skipped),
		MeanReciprocal: rep.MeanReciprocal,
		MeanPosition:   rep.MeanPosition,
		UnderThreshold: rep.UnderThreshold,
		References:     rep.References,
		Found:          rep.Found,
		CreatedAt:      createdAt,
	}
}

// Storer defines the interface for run persistence.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
type Storer interface {
	// Runs
	CreateRun(run *Run) error
	FinishRun(id string, processed int64, finishedAt int64, runErr error) error
	GetRun(id string) (*Run, error)

	// Rankings
	PutRanking(runID string, entry ranking.Entry) error
	GetRanking(runID, character string) (*ranking.Entry, error)
	ListRankings(runID string) ([]ranking.Entry, error)
	CountRankings(runID string) (int, error)

	// Evaluations
	PutEvaluation(ev *Evaluation) error
	GetEvaluation(runID string) (*Evaluation, error)

	// Lifecycle
	Close() error
}
