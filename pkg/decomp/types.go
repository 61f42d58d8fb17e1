// Package decomp flattens operator-based character decompositions into
// positioned atomic components inside the unit glyph box.
package decomp

import "sort"

// Entry is one row of the decomposition table: a layout operator with its
// variant suffix (e.g. "stl", "r3", "a") and 0-2 constituents.
type Entry struct {
	Operator string   `json:"operator"`
	Children []string `json:"children"`
}

// Table maps a character to its decomposition. Read-only after loading.
type Table map[string]Entry

// StopSet holds components at which flattening stops even when the table
// lists further constituents.
type StopSet map[string]struct{}

// NewStopSet builds a StopSet from a list of component identifiers.
func NewStopSet(components ...string) StopSet {
	s := make(StopSet, len(components))
	for _, c := range components {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether c is a stop radical.
func (s StopSet) Contains(c string) bool {
	_, ok := s[c]
	return ok
}

// Box is an axis-aligned rectangle inside the unit square.
// Top is the larger vertical coordinate.
type Box struct {
	Left, Right, Top, Bottom float64
}

// Unit is the full glyph box every character starts from.
var Unit = Box{Left: 0, Right: 1, Top: 1, Bottom: 0}

func (b Box) Width() float64  { return b.Right - b.Left }
func (b Box) Height() float64 { return b.Top - b.Bottom }

// Center returns the horizontal and vertical center of the box.
func (b Box) Center() (x, y float64) {
	return b.Left + b.Width()/2, b.Bottom + b.Height()/2
}

// Component is an atomic component positioned at the center of the box it
// occupies after flattening.
type Component struct {
	ID string  `json:"id"`
	X  float64 `json:"x"` // horizontal center
	Y  float64 `json:"y"` // vertical center
}

// Flattened maps each character to its flattened decomposition, sorted by
// component ID. Shared read-only across ranking workers.
type Flattened map[string][]Component

// Characters returns the flattened characters in ascending order.
func (f Flattened) Characters() []string {
	chars := make([]string, 0, len(f))
	for c := range f {
		chars = append(chars, c)
	}
	sort.Strings(chars)
	return chars
}

// SortComponents orders components by ID, keeping the relative order of
// repeated IDs.
func SortComponents(comps []Component) {
	sort.SliceStable(comps, func(i, j int) bool {
		return comps[i].ID < comps[j].ID
	})
}
