package decomp

import (
	"errors"
	"fmt"
)

// ErrMalformed is the sentinel matched by every MalformedError.
var ErrMalformed = errors.New("malformed decomposition")

// MalformedError reports a decomposition that cannot be flattened. It is
// scoped to one root character; other characters are unaffected.
type MalformedError struct {
	Character string // root being flattened
	Component string // component where flattening failed
	Operator  string
	Reason    string
}

func (e *MalformedError) Error() string {
	if e.Component != "" && e.Component != e.Character {
		return fmt.Sprintf("malformed decomposition for %s at %s (%s): %s", e.Character, e.Component, e.Operator, e.Reason)
	}
	return fmt.Sprintf("malformed decomposition for %s (%s): %s", e.Character, e.Operator, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }
