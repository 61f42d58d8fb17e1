// Package similarity scores pairs of characters by matching shared
// components by position, weighted by component rarity.
package similarity

import (
	"math"
	"sort"

	"github.com/kittclouds/glyphsim/pkg/decomp"
)

// Scorer computes character similarity. All fields are read-only once
// scoring starts, so one Scorer is shared by every worker.
type Scorer struct {
	Flattened   decomp.Flattened
	Rarity      Rarity
	Equivalence *Equivalence // nil disables the short-circuit
}

// NewScorer derives the rarity table from flat and returns a scorer.
func NewScorer(flat decomp.Flattened, eq *Equivalence) *Scorer {
	return &Scorer{
		Flattened:   flat,
		Rarity:      NewRarity(flat),
		Equivalence: eq,
	}
}

// Similarity returns a score in [0,1]: 1 for identical characters,
// EquivalenceScore for equivalent ones, otherwise the rarity-weighted
// positional overlap of their flattened decompositions.
func (s *Scorer) Similarity(c1, c2 string) float64 {
	if c1 == c2 {
		return 1
	}
	if s.Equivalence.Equivalent(c1, c2) {
		return EquivalenceScore
	}
	dc1, ok1 := s.Flattened[c1]
	dc2, ok2 := s.Flattened[c2]
	if !ok1 || !ok2 {
		return 0
	}
	return Overlap(dc1, dc2, s.Rarity)
}

// Overlap walks two sorted component lists with a merge-join. For every
// component present in both it matches occurrences greedily: all pairwise
// position similarities are sorted descending and the top min(occs1, occs2)
// are taken, so no occurrence is counted more than once per run. This is
// not an optimal assignment.
func Overlap(dc1, dc2 []decomp.Component, rarity Rarity) float64 {
	if len(dc1)+len(dc2) == 0 {
		return 0
	}

	total := 0.0
	var pairs []float64
	i, j := 0, 0
	for i < len(dc1) && j < len(dc2) {
		a, b := dc1[i].ID, dc2[j].ID
		switch {
		case a == b:
			startI, startJ := i, j
			for i < len(dc1) && dc1[i].ID == a {
				i++
			}
			for j < len(dc2) && dc2[j].ID == a {
				j++
			}
			occs1, occs2 := i-startI, j-startJ

			pairs = pairs[:0]
			for m := startI; m < i; m++ {
				for n := startJ; n < j; n++ {
					pairs = append(pairs, PositionSimilarity(dc1[m], dc2[n]))
				}
			}
			sort.Sort(sort.Reverse(sort.Float64Slice(pairs)))

			k := min(occs1, occs2)
			w := rarity.Weight(a)
			for _, v := range pairs[:k] {
				total += 2 * v * w
			}
		case a < b:
			i++
		default:
			j++
		}
	}

	return total / float64(len(dc1)+len(dc2))
}

// PositionSimilarity is 1 minus the euclidean distance between the two
// centers, normalized by the unit square's diagonal.
func PositionSimilarity(a, b decomp.Component) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return 1 - math.Sqrt(dx*dx+dy*dy)/math.Sqrt2
}
