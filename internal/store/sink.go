package store

import "github.com/kittclouds/glyphsim/pkg/ranking"

// RankingSink persists every entry the engine emits under one run.
type RankingSink struct {
	Store Storer
	RunID string
}

// NewRankingSink returns a sink writing to s under runID.
func NewRankingSink(s Storer, runID string) *RankingSink {
	return &RankingSink{Store: s, RunID: runID}
}

func (r *RankingSink) Write(e ranking.Entry) error {
	return r.Store.PutRanking(r.RunID, e)
}

var _ ranking.Sink = (*RankingSink)(nil)
