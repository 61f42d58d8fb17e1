package similarity

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kittclouds/glyphsim/pkg/decomp"
)

// Index is an inverted index from component to the universe positions of
// characters containing it. A character scores above zero only against
// characters sharing a component or an equivalence, so Candidates bounds
// the set a ranking worker has to score.
type Index struct {
	chars    []string
	position map[string]uint32
	postings map[string]*roaring.Bitmap
	eq       *Equivalence
	flat     decomp.Flattened
}

// NewIndex indexes every character of universe. Positions in the returned
// bitmaps are indices into universe.
func NewIndex(universe []string, flat decomp.Flattened, eq *Equivalence) *Index {
	idx := &Index{
		chars:    universe,
		position: make(map[string]uint32, len(universe)),
		postings: make(map[string]*roaring.Bitmap),
		eq:       eq,
		flat:     flat,
	}
	for i, c := range universe {
		idx.position[c] = uint32(i)
		for _, comp := range flat[c] {
			bm := idx.postings[comp.ID]
			if bm == nil {
				bm = roaring.New()
				idx.postings[comp.ID] = bm
			}
			bm.Add(uint32(i))
		}
	}
	for _, bm := range idx.postings {
		bm.RunOptimize()
	}
	return idx
}

// Candidates returns the positions of every character that may score above
// zero against c, including c itself when it is in the universe.
func (idx *Index) Candidates(c string) *roaring.Bitmap {
	out := roaring.New()
	seen := ""
	for _, comp := range idx.flat[c] {
		if comp.ID == seen {
			continue
		}
		seen = comp.ID
		if bm := idx.postings[comp.ID]; bm != nil {
			out.Or(bm)
		}
	}
	for _, p := range idx.eq.Partners(c) {
		if pos, ok := idx.position[p]; ok {
			out.Add(pos)
		}
	}
	return out
}

// Postings returns the characters containing comp, in universe order.
func (idx *Index) Postings(comp string) []string {
	bm := idx.postings[comp]
	if bm == nil {
		return nil
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, idx.chars[it.Next()])
	}
	return out
}

// Components returns the number of distinct indexed components.
func (idx *Index) Components() int { return len(idx.postings) }
