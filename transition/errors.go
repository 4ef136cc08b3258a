package transition

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrNilMachine is returned when a transition is invoked on a nil machine.
	ErrNilMachine = errors.New("machine is nil")
	// ErrNilSpec is returned when a nil transition spec is invoked.
	ErrNilSpec = errors.New("transition spec is nil")

	// ErrReentrantInvoke is returned when a hook or action invokes a transition
	// on the machine it is already running on.
	ErrReentrantInvoke = errors.New("transition invoked from inside a transition on the same machine")
	// ErrPanicked wraps the value of a panic raised by a hook or action.
	ErrPanicked = errors.New("transition panicked")

	// ErrInvalidConfig indicates that executor configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDefinitionNameRequired indicates that a definitions file has no name.
	ErrDefinitionNameRequired = errors.New("definitions name is required")
	// ErrTransitionNameRequired indicates that a transition definition has no name.
	ErrTransitionNameRequired = errors.New("transition name is required")
	// ErrTransitionTargetRequired indicates that a transition definition has no target state.
	ErrTransitionTargetRequired = errors.New("transition target state is required")
	// ErrTransitionSourcesConflict indicates that a transition lists source states and also sets any.
	ErrTransitionSourcesConflict = errors.New("transition cannot list source states and set any")
	// ErrDuplicateTransition indicates that two transition definitions share a name.
	ErrDuplicateTransition = errors.New("duplicate transition name")

	// ErrUnknownGuard indicates that a guard name is not registered.
	ErrUnknownGuard = errors.New("unknown guard")
	// ErrUnknownHook indicates that a hook name is not registered.
	ErrUnknownHook = errors.New("unknown hook")
	// ErrUnknownAction indicates that an action name is not registered.
	ErrUnknownAction = errors.New("unknown action")
)

// Phase names the step of the transition protocol in which a failure occurred.
type Phase string

const (
	PhaseGuard  Phase = "guard"
	PhaseExit   Phase = "exit"
	PhaseBefore Phase = "before"
	PhaseAction Phase = "action"
	PhaseAfter  Phase = "after"
)

// TransitionError wraps a failure raised by a guard, hook or action with
// the transition it happened in.
type TransitionError struct {
	Transition string
	From       string
	To         string
	Phase      Phase
	Err        error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s (%s -> %s) %s: %v", e.Transition, e.From, e.To, e.Phase, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// wrapTransitionError wraps err with transition context. Nil stays nil.
func wrapTransitionError[S comparable](t *Spec[S], from S, phase Phase, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		Transition: t.Name(),
		From:       fmt.Sprint(from),
		To:         fmt.Sprint(t.target),
		Phase:      phase,
		Err:        err,
	}
}

// PhaseOf returns the phase recorded in the first TransitionError in err's
// chain, and false if there is none.
func PhaseOf(err error) (Phase, bool) {
	var te *TransitionError
	if !errors.As(err, &te) {
		return "", false
	}

	return te.Phase, true
}
