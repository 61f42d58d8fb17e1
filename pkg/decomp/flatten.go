package decomp

import (
	"errors"

	"github.com/kittclouds/glyphsim/internal/logging"
)

// Flattener expands characters into positioned atomic components.
// It only reads its tables and is safe for concurrent use.
type Flattener struct {
	Table Table
	Stops StopSet
}

// NewFlattener creates a flattener over the given tables.
func NewFlattener(table Table, stops StopSet) *Flattener {
	if stops == nil {
		stops = StopSet{}
	}
	return &Flattener{Table: table, Stops: stops}
}

// Flatten expands character inside box. The result is in expansion order;
// use SortComponents before merge-style comparison.
//
// Every call recomputes the whole tree. Shared sub-components are not
// memoized since decomposition trees are shallow.
func (f *Flattener) Flatten(character string, box Box) ([]Component, error) {
	w := walker{f: f, root: character, path: make(map[string]bool)}
	return w.expand(character, box)
}

// FlattenAll flattens every table character from the unit box and sorts
// each result by component ID. Characters that fail are left out of the
// map and their errors are returned alongside.
func (f *Flattener) FlattenAll() (Flattened, []error) {
	out := make(Flattened, len(f.Table))
	var errs []error
	for character := range f.Table {
		comps, err := f.Flatten(character, Unit)
		if err != nil {
			var me *MalformedError
			if errors.As(err, &me) {
				logging.Logger().Warn("skipping character", "character", character, "operator", me.Operator, "reason", me.Reason)
			}
			errs = append(errs, err)
			continue
		}
		SortComponents(comps)
		out[character] = comps
	}
	return out, errs
}

// walker carries per-root state: the root for error reporting and the
// expansion path for cycle detection.
type walker struct {
	f    *Flattener
	root string
	path map[string]bool
}

func (w *walker) malformed(comp, op, reason string) error {
	return &MalformedError{Character: w.root, Component: comp, Operator: op, Reason: reason}
}

func (w *walker) expand(comp string, box Box) ([]Component, error) {
	entry, ok := w.f.Table[comp]
	if !ok || len(entry.Children) == 0 || w.f.Stops.Contains(comp) {
		x, y := box.Center()
		return []Component{{ID: comp, X: x, Y: y}}, nil
	}

	if w.path[comp] {
		return nil, w.malformed(comp, entry.Operator, "cyclic decomposition")
	}
	w.path[comp] = true
	defer delete(w.path, comp)

	op := entry.Operator
	kind := Classify(op)
	if kind == KindAtomic {
		return nil, w.malformed(comp, op, "atomic operator with constituents")
	}
	if n := kind.Arity(); n > 0 && len(entry.Children) < n {
		return nil, w.malformed(comp, op, "missing constituents")
	}

	children := entry.Children
	switch kind {
	case KindModifier:
		return w.expand(children[0], box)

	case KindSurround:
		outer, err := w.expand(children[0], box)
		if err != nil {
			return nil, err
		}
		inner, err := w.expand(children[1], SurroundBox(op, box))
		if err != nil {
			return nil, err
		}
		return append(outer, inner...), nil

	case KindHorizontal:
		left, right := SplitHorizontal(box)
		return w.pair(children[0], left, children[1], right)

	case KindVertical:
		upper, lower := SplitVertical(box)
		return w.pair(children[0], upper, children[1], lower)

	case KindRepeat:
		sub, err := w.expand(children[0], box)
		if err != nil {
			return nil, err
		}
		n := Repetitions(op)
		all := make([]Component, 0, len(sub)*n)
		for i := 0; i < n; i++ {
			all = append(all, sub...)
		}
		return all, nil

	default:
		// contained, between, locked and unknown operators: true geometry
		// is not modeled, every child covers the same box
		var all []Component
		for _, child := range children {
			sub, err := w.expand(child, box)
			if err != nil {
				return nil, err
			}
			all = append(all, sub...)
		}
		return all, nil
	}
}

func (w *walker) pair(a string, boxA Box, b string, boxB Box) ([]Component, error) {
	first, err := w.expand(a, boxA)
	if err != nil {
		return nil, err
	}
	second, err := w.expand(b, boxB)
	if err != nil {
		return nil, err
	}
	return append(first, second...), nil
}
