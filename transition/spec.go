package transition

import (
	"context"
	"fmt"
)

// Guard decides whether a transition may proceed. An error aborts the
// transition and is returned to the caller.
type Guard[S comparable] func(ctx context.Context, m *Machine[S], args ...any) (bool, error)

// Hook is a side-effecting lifecycle callback. Hooks run while the machine's
// notifier is held, so a hook must not invoke a transition on, or wait for,
// its own machine; such calls made with the hook's ctx fail fast with
// ErrReentrantInvoke or false.
type Hook[S comparable] func(ctx context.Context, m *Machine[S], args ...any) error

// Action is the business logic of a transition. The reentrancy restriction
// documented on Hook applies to actions too.
type Action[S comparable] func(ctx context.Context, m *Machine[S], args ...any) error

// Spec is an immutable transition definition. Use New to create one and the
// With* methods to derive variants. A nil guard allows every call and nil
// hooks do nothing.
type Spec[S comparable] struct {
	name    string
	sources Sources[S]
	target  S
	guard   Guard[S]
	enter   Hook[S]
	exit    Hook[S]
	before  Hook[S]
	after   Hook[S]
	action  Action[S]
}

// New returns a bare transition from sources to target.
func New[S comparable](sources Sources[S], target S) *Spec[S] {
	return &Spec[S]{
		sources: sources,
		target:  target,
	}
}

func (t *Spec[S]) clone() *Spec[S] {
	c := *t

	return &c
}

// WithName returns a copy of t with the given name.
func (t *Spec[S]) WithName(name string) *Spec[S] {
	c := t.clone()
	c.name = name

	return c
}

// WithGuard returns a copy of t with its guard replaced.
func (t *Spec[S]) WithGuard(fn Guard[S]) *Spec[S] {
	c := t.clone()
	c.guard = fn

	return c
}

// WithEnter returns a copy of t with its enter hook replaced.
func (t *Spec[S]) WithEnter(fn Hook[S]) *Spec[S] {
	c := t.clone()
	c.enter = fn

	return c
}

// WithExit returns a copy of t with its exit hook replaced. The exit hook
// runs when the next transition on the same machine commits.
func (t *Spec[S]) WithExit(fn Hook[S]) *Spec[S] {
	c := t.clone()
	c.exit = fn

	return c
}

// WithBefore returns a copy of t with its before hook replaced.
func (t *Spec[S]) WithBefore(fn Hook[S]) *Spec[S] {
	c := t.clone()
	c.before = fn

	return c
}

// WithAfter returns a copy of t with its after hook replaced.
func (t *Spec[S]) WithAfter(fn Hook[S]) *Spec[S] {
	c := t.clone()
	c.after = fn

	return c
}

// WithAction returns a copy of t with its action replaced.
func (t *Spec[S]) WithAction(fn Action[S]) *Spec[S] {
	c := t.clone()
	c.action = fn

	return c
}

// Name returns the transition name, or "<sources>-><target>" if none was set.
func (t *Spec[S]) Name() string {
	if t.name != "" {
		return t.name
	}

	return fmt.Sprintf("%s->%v", t.sources, t.target)
}

// Sources returns the states this transition may start from.
func (t *Spec[S]) Sources() Sources[S] {
	return t.sources
}

// Target returns the state reached when the transition commits.
func (t *Spec[S]) Target() S {
	return t.target
}

// Enter returns the enter hook, or nil. The executor carries it but does not
// invoke it; callers that want entry semantics can run it from their own code.
func (t *Spec[S]) Enter() Hook[S] {
	return t.enter
}

// HasGuard reports whether a guard was registered.
func (t *Spec[S]) HasGuard() bool {
	return t.guard != nil
}

func (t *Spec[S]) String() string {
	return t.Name()
}

func (t *Spec[S]) allows(ctx context.Context, m *Machine[S], args []any) (bool, error) {
	if t.guard == nil {
		return true, nil
	}

	return t.guard(ctx, m, args...)
}

func (t *Spec[S]) runExit(ctx context.Context, m *Machine[S], args []any) error {
	return runHook(ctx, t.exit, m, args)
}

func (t *Spec[S]) runBefore(ctx context.Context, m *Machine[S], args []any) error {
	return runHook(ctx, t.before, m, args)
}

func (t *Spec[S]) runAfter(ctx context.Context, m *Machine[S], args []any) error {
	return runHook(ctx, t.after, m, args)
}

func (t *Spec[S]) runAction(ctx context.Context, m *Machine[S], args []any) error {
	if t.action == nil {
		return nil
	}

	return t.action(ctx, m, args...)
}

func runHook[S comparable](ctx context.Context, hook Hook[S], m *Machine[S], args []any) error {
	if hook == nil {
		return nil
	}

	return hook(ctx, m, args...)
}
