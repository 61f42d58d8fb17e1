package similarity

import (
	"math"

	"github.com/kittclouds/glyphsim/pkg/decomp"
)

// Rarity maps a component to its weight in (0,1]. Rarer components weigh more.
type Rarity map[string]float64

// NewRarity derives component weights from every flattened decomposition.
// A component's document frequency counts characters containing it at
// least once; repeats inside one character do not count twice.
func NewRarity(flat decomp.Flattened) Rarity {
	docFreq := make(map[string]int)
	for _, comps := range flat {
		for i, c := range comps {
			// components are sorted, so a repeat directly follows its first occurrence
			if i > 0 && comps[i-1].ID == c.ID {
				continue
			}
			docFreq[c.ID]++
		}
	}

	total := len(flat)
	r := make(Rarity, len(docFreq))
	for comp, df := range docFreq {
		r[comp] = RarityWeight(total, df)
	}
	return r
}

// RarityWeight is a normalized inverse document frequency:
// ln(1 + N/df) / ln(1 + N). It is 1 for a component found in a single
// character and decreases strictly as df grows.
func RarityWeight(totalChars, docFreq int) float64 {
	if docFreq <= 0 || totalChars <= 0 {
		return 1.0
	}
	if docFreq > totalChars {
		docFreq = totalChars
	}
	n := float64(totalChars)
	w := math.Log(1.0+n/float64(docFreq)) / math.Log(1.0+n)
	if w > 1.0 {
		return 1.0
	}
	return w
}

// Weight returns the weight of comp; unknown components weigh 1.
func (r Rarity) Weight(comp string) float64 {
	if w, ok := r[comp]; ok {
		return w
	}
	return 1.0
}
