package decomp

import "strings"

// Kind is the operator family a layout operator belongs to.
type Kind int

const (
	KindUnknown    Kind = iota
	KindAtomic          // "c"
	KindModifier        // "m..."
	KindContained       // "w..."
	KindBetween         // "b..."
	KindLocked          // "lock..."
	KindSurround        // "s..."
	KindHorizontal      // "a..."
	KindVertical        // "d..."
	KindRepeat          // "r..."
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindAtomic:     "atomic",
	KindModifier:   "modifier",
	KindContained:  "contained",
	KindBetween:    "between",
	KindLocked:     "locked",
	KindSurround:   "surround",
	KindHorizontal: "horizontal",
	KindVertical:   "vertical",
	KindRepeat:     "repeat",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Classify returns the family of an operator. Prefixes are tested in a
// fixed order and the first match wins.
func Classify(op string) Kind {
	switch {
	case op == "c":
		return KindAtomic
	case strings.HasPrefix(op, "m"):
		return KindModifier
	case strings.HasPrefix(op, "w"):
		return KindContained
	case strings.HasPrefix(op, "b"):
		return KindBetween
	case strings.HasPrefix(op, "lock"):
		return KindLocked
	case strings.HasPrefix(op, "s"):
		return KindSurround
	case strings.HasPrefix(op, "a"):
		return KindHorizontal
	case strings.HasPrefix(op, "d"):
		return KindVertical
	case strings.HasPrefix(op, "r"):
		return KindRepeat
	default:
		return KindUnknown
	}
}

// Arity is the number of children an operator family consumes, or -1 when
// it takes whatever is listed.
func (k Kind) Arity() int {
	switch k {
	case KindModifier, KindRepeat:
		return 1
	case KindSurround, KindHorizontal, KindVertical:
		return 2
	default:
		return -1
	}
}

// SurroundBox returns the box of the enclosed (second) child of a surround
// operator. The enclosing child always keeps the full box.
func SurroundBox(op string, b Box) Box {
	w, h := b.Width(), b.Height()
	switch {
	case strings.HasPrefix(op, "stl"):
		return Box{Left: b.Left + w/2, Right: b.Right, Top: b.Bottom + h/2, Bottom: b.Bottom}
	case strings.HasPrefix(op, "sbl"):
		return Box{Left: b.Left + w/2, Right: b.Right, Top: b.Top, Bottom: b.Bottom + h/2}
	case strings.HasPrefix(op, "str"):
		return Box{Left: b.Left, Right: b.Left + w/2, Top: b.Bottom + h/2, Bottom: b.Bottom}
	case strings.HasPrefix(op, "sbr"):
		return Box{Left: b.Left, Right: b.Left + w/2, Top: b.Top, Bottom: b.Bottom + h/2}
	case strings.HasPrefix(op, "sl"):
		return Box{Left: b.Left + w/2, Right: b.Right, Top: b.Top - h/4, Bottom: b.Bottom + h/4}
	case strings.HasPrefix(op, "sr"):
		return Box{Left: b.Left, Right: b.Left + w/2, Top: b.Top - h/4, Bottom: b.Bottom + h/4}
	case strings.HasPrefix(op, "st"):
		return Box{Left: b.Left + w/4, Right: b.Right - w/4, Top: b.Bottom + h/2, Bottom: b.Bottom}
	case strings.HasPrefix(op, "sb"):
		return Box{Left: b.Left + w/4, Right: b.Right - w/4, Top: b.Top, Bottom: b.Bottom + h/2}
	default:
		return Box{Left: b.Left + w/4, Right: b.Right - w/4, Top: b.Top - h/4, Bottom: b.Bottom + h/4}
	}
}

// SplitHorizontal divides b at its horizontal midpoint into left and right halves.
func SplitHorizontal(b Box) (left, right Box) {
	mid := b.Left + b.Width()/2
	left, right = b, b
	left.Right = mid
	right.Left = mid
	return left, right
}

// SplitVertical divides b at its vertical midpoint; upper spans [mid, Top],
// lower spans [Bottom, mid].
func SplitVertical(b Box) (upper, lower Box) {
	mid := b.Bottom + b.Height()/2
	upper, lower = b, b
	upper.Bottom = mid
	lower.Top = mid
	return upper, lower
}

// Repetitions returns how many times a repeat operator copies its child.
func Repetitions(op string) int {
	if strings.HasPrefix(op, "rot") {
		return 1
	}
	if len(op) > 1 && op[1] >= '0' && op[1] <= '9' {
		return int(op[1] - '0')
	}
	for _, p := range []string{"rr", "ra", "rd", "rst"} {
		if strings.HasPrefix(op, p) {
			return 2
		}
	}
	return 1
}
