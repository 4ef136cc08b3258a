package transition

import (
	"fmt"
	"slices"
	"strings"
)

// Sources is the set of states a transition may start from.
// The zero value is unconstrained, the same as Any.
type Sources[S comparable] struct {
	states      []S
	constrained bool
}

// From returns Sources matching exactly the given states.
// From() with no arguments matches nothing.
func From[S comparable](states ...S) Sources[S] {
	return Sources[S]{states: slices.Clone(states), constrained: true}
}

// Any returns unconstrained Sources: every state matches, including the
// default state of a machine that has never transitioned.
func Any[S comparable]() Sources[S] {
	return Sources[S]{}
}

// Contains reports whether a transition with these sources may start from state.
func (s Sources[S]) Contains(state S) bool {
	if !s.constrained {
		return true
	}

	return slices.Contains(s.states, state)
}

// IsAny reports whether the sources are unconstrained.
func (s Sources[S]) IsAny() bool {
	return !s.constrained
}

// States returns a copy of the explicit source states. It is empty for Any.
func (s Sources[S]) States() []S {
	return slices.Clone(s.states)
}

func (s Sources[S]) String() string {
	if !s.constrained {
		return "*"
	}

	parts := make([]string, len(s.states))
	for i, state := range s.states {
		parts[i] = fmt.Sprint(state)
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return "{" + strings.Join(parts, ",") + "}"
}
