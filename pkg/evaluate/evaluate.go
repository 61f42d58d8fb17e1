// Package evaluate measures how well the similarity ranking reproduces
// hand-labelled reference characters.
package evaluate

import (
	"errors"
	"fmt"
	"time"

	"github.com/kittclouds/glyphsim/internal/logging"
	"github.com/kittclouds/glyphsim/pkg/ranking"
)

const (
	// DefaultThreshold is the rank below which a reference counts as found early.
	DefaultThreshold = 500
	// NotRanked is the position assigned to a reference absent from the universe.
	NotRanked = 10000000
	// TopN is how many ranked characters each case reports.
	TopN = 20
)

// ErrMissingCharacter marks a test case whose character has no decomposition.
var ErrMissingCharacter = errors.New("character not in decomposition")

// TestCase is a character with reference characters in descending
// expected priority.
type TestCase struct {
	Character  string
	References []string
}

// Reference is where one reference character landed.
type Reference struct {
	Character string `json:"character"`
	Position  int    `json:"position"` // 0-based, NotRanked when absent
}

// CaseResult is the outcome of one evaluated test case.
type CaseResult struct {
	Character  string      `json:"character"`
	Top        []string    `json:"top"`
	References []Reference `json:"references"`
	Score      float64     `json:"score"`
}

// Report aggregates every evaluated case.
type Report struct {
	Cases   []CaseResult `json:"cases"`
	Skipped []error      `json:"-"`

	MeanReciprocal float64 `json:"meanReciprocal"` // summed case scores / reference count
	MeanPosition   float64 `json:"meanPosition"`   // over references found in the universe
	UnderThreshold float64 `json:"underThreshold"` // fraction of references ranked below Threshold

	References int           `json:"references"`
	Found      int           `json:"found"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Evaluator ranks the full universe for each test case.
type Evaluator struct {
	Universe  []string
	Known     func(c string) bool
	Scorer    ranking.Scorer
	Threshold int
}

// New returns an evaluator with the default threshold.
func New(universe []string, known func(string) bool, scorer ranking.Scorer) *Evaluator {
	return &Evaluator{Universe: universe, Known: known, Scorer: scorer, Threshold: DefaultThreshold}
}

// Evaluate runs every case. Cases whose character is unknown are skipped
// and listed in Report.Skipped; they touch no statistic.
func (ev *Evaluator) Evaluate(cases []TestCase) Report {
	start := time.Now()
	log := logging.Logger()
	threshold := ev.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var (
		rep        Report
		totalScore float64
		posSum     int
		under      int
	)
	scores := make([]float64, len(ev.Universe))
	var order []int

	for _, tc := range cases {
		if ev.Known != nil && !ev.Known(tc.Character) {
			log.Warn("skipping test case", "character", tc.Character, "reason", ErrMissingCharacter)
			rep.Skipped = append(rep.Skipped, fmt.Errorf("%s: %w", tc.Character, ErrMissingCharacter))
			continue
		}

		for j, other := range ev.Universe {
			if other == tc.Character {
				scores[j] = 0
				continue
			}
			scores[j] = ev.Scorer.Similarity(tc.Character, other)
		}
		order = ranking.Argsort(scores, order)

		position := make(map[string]int, len(order))
		for pos, j := range order {
			position[ev.Universe[j]] = pos
		}

		res := CaseResult{Character: tc.Character}
		for pos := 0; pos < min(TopN, len(order)); pos++ {
			res.Top = append(res.Top, ev.Universe[order[pos]])
		}
		for k, ref := range tc.References {
			pos, ok := position[ref]
			if ok {
				posSum += pos
				rep.Found++
			} else {
				pos = NotRanked
			}
			if pos < threshold {
				under++
			}
			rep.References++
			res.References = append(res.References, Reference{Character: ref, Position: pos})
			res.Score += 1.0 / float64(k+1) * 1.0 / float64(pos+1)
		}
		totalScore += res.Score
		rep.Cases = append(rep.Cases, res)
		log.Debug("evaluated test case", "character", tc.Character, "score", res.Score)
	}

	if rep.References > 0 {
		rep.MeanReciprocal = totalScore / float64(rep.References)
		rep.UnderThreshold = float64(under) / float64(rep.References)
	}
	if rep.Found > 0 {
		rep.MeanPosition = float64(posSum) / float64(rep.Found)
	}
	rep.Elapsed = time.Since(start)
	log.Info("evaluation finished", "cases", len(rep.Cases), "skipped", len(rep.Skipped),
		"meanReciprocal", rep.MeanReciprocal, "meanPosition", rep.MeanPosition, "underThreshold", rep.UnderThreshold)
	return rep
}
