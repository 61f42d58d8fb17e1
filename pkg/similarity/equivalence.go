package similarity

// EquivalenceScore is returned for orthographically equivalent characters.
const EquivalenceScore = 0.99

// Equivalence maps a source character to equivalent characters in another
// script variant. Storage is one-directional; Equivalent checks both.
type Equivalence struct {
	forward map[string]map[string]struct{}
	reverse map[string][]string
}

// NewEquivalence builds the table from source -> targets rows.
func NewEquivalence(rows map[string][]string) *Equivalence {
	e := &Equivalence{
		forward: make(map[string]map[string]struct{}, len(rows)),
		reverse: make(map[string][]string),
	}
	for src, targets := range rows {
		for _, dst := range targets {
			e.Add(src, dst)
		}
	}
	return e
}

// Add records src -> dst. Not safe for use concurrently with lookups;
// tables are built before scoring starts.
func (e *Equivalence) Add(src, dst string) {
	if src == "" || dst == "" {
		return
	}
	set := e.forward[src]
	if set == nil {
		set = make(map[string]struct{})
		e.forward[src] = set
	}
	if _, ok := set[dst]; ok {
		return
	}
	set[dst] = struct{}{}
	e.reverse[dst] = append(e.reverse[dst], src)
}

// Equivalent reports whether a maps to b or b maps to a.
func (e *Equivalence) Equivalent(a, b string) bool {
	if e == nil {
		return false
	}
	if _, ok := e.forward[a][b]; ok {
		return true
	}
	_, ok := e.forward[b][a]
	return ok
}

// Partners returns every character equivalent to c in either direction.
func (e *Equivalence) Partners(c string) []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.forward[c])+len(e.reverse[c]))
	for dst := range e.forward[c] {
		out = append(out, dst)
	}
	return append(out, e.reverse[c]...)
}

// Len returns the number of source characters.
func (e *Equivalence) Len() int {
	if e == nil {
		return 0
	}
	return len(e.forward)
}
