// Package transition executes named state transitions against a Machine.
//
// A Spec declares which states a transition may start from, the state it
// reaches, an optional guard and four lifecycle hooks. Specs are immutable:
// every With* method returns a new Spec, so a bare transition can be declared
// once and layered with guards and hooks without affecting earlier values.
// A single Spec can be shared by any number of machines.
//
// Invoking a Spec on a Machine runs this protocol:
//
//  1. Lazily initialize the machine on its first invocation.
//  2. If the machine's state is not one of the Spec's sources, return the
//     current state. Nothing else happens.
//  3. If the guard rejects the call, return the current state.
//  4. Inside the machine's ChangeNotifier: run the exit hook of the
//     previously committed Spec, then before, then the action, then after
//     (after always runs once before has run), then commit the new state
//     and active Spec together.
//  5. Wake every goroutine blocked in WaitForState on that machine.
//
// The notifier is not reentrant. A hook or action that calls Invoke or
// WaitForState on its own machine with the ctx it was given gets
// ErrReentrantInvoke (or false) instead of deadlocking. Start follow-up
// transitions after Invoke returns.
//
// Steps 2 and 3 read the machine's state without holding its lock. A
// concurrent commit between the check and the critical section is not
// detected; the call then behaves as it would have against the state it
// observed.
//
// Example:
//
//	on := transition.New(transition.From("off"), "on")
//	off := transition.New(transition.From("on"), "off").
//	    WithGuard(func(ctx context.Context, m *transition.Machine[string], args ...any) (bool, error) {
//	        return !alwaysOn, nil
//	    })
//
//	m := transition.NewMachine(transition.WithInitialState("off"))
//	state, err := transition.Invoke(ctx, m, on) // "on", nil
package transition
