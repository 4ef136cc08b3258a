package transition

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// NoTimeout makes WaitForState block until the state is reached or the
// context ends.
const NoTimeout time.Duration = -1

// WaitForState blocks until m's state equals target, the timeout elapses, or
// ctx is done, using a default executor. See Executor.WaitForState.
func WaitForState[S comparable](ctx context.Context, m *Machine[S], target S, timeout time.Duration) bool {
	return NewExecutor[S]().WaitForState(ctx, m, target, timeout)
}

// WaitForState blocks until m's state equals target and reports whether it
// did before the deadline.
//
// A negative timeout (NoTimeout) waits without a deadline; a zero timeout
// checks the state once. A machine that has never been initialized returns
// false immediately, since no commit could ever wake the caller. A done ctx
// also returns false. Called from a hook or action of m with the ctx the
// callback received, it returns false without blocking, since m cannot
// commit until the callback returns.
func (e *Executor[S]) WaitForState(ctx context.Context, m *Machine[S], target S, timeout time.Duration) bool {
	targetLabel := fmt.Sprint(target)
	start := time.Now()

	if m == nil || !m.Initialized() {
		e.observeWait(ctx, "", targetLabel, start, WaitUninitialized)

		return false
	}

	if m.Notifier().IsHeld(ctx) {
		e.observeWait(ctx, m.ID(), targetLabel, start, WaitReentrant)

		return false
	}

	ctx, span := startWaitSpan(ctx, newTracer(e.tracing), m.ID(), targetLabel)
	defer span.End()

	if e.metrics {
		waiters.Inc()
		defer waiters.Dec()
	}

	satisfied := waitForState(ctx, m, target, deadlineFor(start, timeout))

	outcome := WaitSatisfied

	switch {
	case satisfied:
	case ctx.Err() != nil:
		outcome = WaitCanceled
	default:
		outcome = WaitTimedOut
	}

	span.SetAttributes(attribute.String("outcome", outcome))
	e.observeWait(ctx, m.ID(), targetLabel, start, outcome)

	return satisfied
}

// waitForState holds m's notifier and waits until the state matches.
func waitForState[S comparable](ctx context.Context, m *Machine[S], target S, deadline time.Time) bool {
	n := m.Notifier()

	n.Lock()
	defer n.Unlock()

	return n.WaitFor(ctx, func() bool {
		return m.State() == target
	}, deadline)
}

// deadlineFor converts a relative timeout into an absolute deadline. The
// zero time means no deadline.
func deadlineFor(start time.Time, timeout time.Duration) time.Time {
	if timeout < 0 {
		return time.Time{}
	}

	return start.Add(timeout)
}

func (e *Executor[S]) observeWait(ctx context.Context, machineID, state string, start time.Time, outcome string) {
	e.logger.WaitCompleted(ctx, machineID, state, time.Since(start), outcome)

	if e.metrics {
		waitTotal.WithLabelValues(outcome).Inc()
	}
}
