package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kittclouds/glyphsim/pkg/decomp"
)

func TestRarityWeight_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, RarityWeight(100, 1))
	assert.Greater(t, RarityWeight(100, 100), 0.0)
	assert.Equal(t, 1.0, RarityWeight(0, 0))
	assert.Equal(t, RarityWeight(10, 10), RarityWeight(10, 50), "df is clamped to N")
}

func TestRarityWeight_Monotonic(t *testing.T) {
	prev := RarityWeight(1000, 1)
	for df := 2; df <= 1000; df++ {
		w := RarityWeight(1000, df)
		assert.Less(t, w, prev, "df=%d", df)
		prev = w
	}
}

func TestNewRarity_CountsCharactersNotOccurrences(t *testing.T) {
	flat := decomp.Flattened{
		"林": {comp("木", 0.5, 0.5), comp("木", 0.5, 0.5)},
		"好": {comp("女", 0.25, 0.5), comp("子", 0.75, 0.5)},
		"妈": {comp("女", 0.25, 0.5), comp("马", 0.75, 0.5)},
	}
	r := NewRarity(flat)

	assert.Equal(t, 1.0, r.Weight("木"))
	assert.Equal(t, 1.0, r.Weight("子"))
	assert.Equal(t, RarityWeight(3, 2), r.Weight("女"))
	assert.Less(t, r.Weight("女"), r.Weight("子"))
	assert.Equal(t, 1.0, r.Weight("unseen"))
}
