package transition

import (
	"context"
	"time"
)

// Bound pairs a machine with one transition, the way a method is bound to
// its receiver. It is a convenience over Executor.Invoke and
// Executor.WaitForState.
type Bound[S comparable] struct {
	exec    *Executor[S]
	machine *Machine[S]
	spec    *Spec[S]
}

// Bind returns t bound to m. A nil executor uses NewExecutor defaults.
func Bind[S comparable](exec *Executor[S], m *Machine[S], t *Spec[S]) *Bound[S] {
	if exec == nil {
		exec = NewExecutor[S]()
	}

	return &Bound[S]{
		exec:    exec,
		machine: m,
		spec:    t,
	}
}

// Call invokes the bound transition with args.
func (b *Bound[S]) Call(ctx context.Context, args ...any) (S, error) {
	return b.exec.Invoke(ctx, b.machine, b.spec, args...)
}

// Wait blocks until the machine reaches the bound transition's target.
func (b *Bound[S]) Wait(ctx context.Context, timeout time.Duration) bool {
	return b.exec.WaitForState(ctx, b.machine, b.spec.Target(), timeout)
}

// Spec returns the bound transition.
func (b *Bound[S]) Spec() *Spec[S] {
	return b.spec
}

// Machine returns the bound machine.
func (b *Bound[S]) Machine() *Machine[S] {
	return b.machine
}
