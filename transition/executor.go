package transition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultFanoutWorkers = 8

// Executor runs transitions against machines. It holds only configuration,
// so one Executor may be shared by any number of goroutines and machines.
type Executor[S comparable] struct {
	defaultState  S
	logger        Logger
	metrics       bool
	tracing       bool
	fanoutWorkers int
}

// Option configures an Executor.
type Option[S comparable] func(*Executor[S])

// WithDefaultState sets the state given to a machine on initialization when
// the machine has no initial state of its own. It defaults to the zero value.
func WithDefaultState[S comparable](state S) Option[S] {
	return func(e *Executor[S]) {
		e.defaultState = state
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger[S comparable](logger Logger) Option[S] {
	return func(e *Executor[S]) {
		if logger == nil {
			logger = NopLogger{}
		}

		e.logger = logger
	}
}

// WithMetrics enables or disables Prometheus metrics.
func WithMetrics[S comparable](enabled bool) Option[S] {
	return func(e *Executor[S]) {
		e.metrics = enabled
	}
}

// WithTracing enables or disables OpenTelemetry spans.
func WithTracing[S comparable](enabled bool) Option[S] {
	return func(e *Executor[S]) {
		e.tracing = enabled
	}
}

// WithFanoutWorkers sets the worker count used by InvokeAll.
func WithFanoutWorkers[S comparable](workers int) Option[S] {
	return func(e *Executor[S]) {
		if workers > 0 {
			e.fanoutWorkers = workers
		}
	}
}

// NewExecutor creates an executor. By default it logs through slog, records
// metrics and starts spans on the global tracer.
func NewExecutor[S comparable](opts ...Option[S]) *Executor[S] {
	e := &Executor[S]{
		logger:        NewDefaultLogger(),
		metrics:       true,
		tracing:       true,
		fanoutWorkers: defaultFanoutWorkers,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// DefaultState returns the state given to machines without an initial state.
func (e *Executor[S]) DefaultState() S {
	return e.defaultState
}

// Invoke runs t against m with a default executor. See Executor.Invoke.
func Invoke[S comparable](ctx context.Context, m *Machine[S], t *Spec[S], args ...any) (S, error) {
	return NewExecutor[S]().Invoke(ctx, m, t, args...)
}

// Invoke attempts transition t on machine m and returns the resulting state.
//
// If m's state is not one of t's sources, or t's guard returns false, the
// current state is returned with a nil error and nothing else happens.
// Otherwise the exit hook of m's active spec, t's before hook, t's action
// and t's after hook run in that order while m's notifier is held, and m is
// committed to t's target. The after hook runs whenever the before hook
// succeeded, even if the action failed or panicked.
//
// A failure in any guard, hook or action is returned as a *TransitionError
// together with the state m had when the call started; m is left unchanged.
// A panic in a hook or action is recorded as a failure and then re-raised.
//
// Hooks and actions run while m's notifier is held, and the notifier is not
// reentrant. Calling Invoke on m (or on a machine sharing its notifier) with
// the ctx a hook received returns ErrReentrantInvoke without running
// anything. A follow-up transition on m must be started after Invoke
// returns. Calls made with an unrelated context cannot be detected and
// block forever.
func (e *Executor[S]) Invoke(ctx context.Context, m *Machine[S], t *Spec[S], args ...any) (S, error) {
	if m == nil {
		var zero S

		return zero, ErrNilMachine
	}

	if t == nil {
		return m.State(), ErrNilSpec
	}

	if m.initialize(e.defaultState) && e.metrics {
		machinesInitialized.Inc()
	}

	n := m.Notifier()
	if n.IsHeld(ctx) {
		err := fmt.Errorf("%w: %s", ErrReentrantInvoke, t.Name())

		e.logger.TransitionFailed(ctx, m.ID(), t.Name(), 0, err)
		e.observe(t, outcomeError, 0)

		return m.State(), err
	}

	from := m.State()
	fromLabel := fmt.Sprint(from)
	toLabel := fmt.Sprint(t.target)

	if !t.sources.Contains(from) {
		e.logger.TransitionSkipped(ctx, m.ID(), t.Name(), fromLabel, SkipInapplicable)
		e.observe(t, outcomeInapplicable, 0)

		return from, nil
	}

	ctx, span := startTransitionSpan(ctx, newTracer(e.tracing), m, t, fromLabel, toLabel)
	defer span.End()

	start := time.Now()

	allowed, err := t.allows(ctx, m, args)
	if err != nil {
		err = wrapTransitionError(t, from, PhaseGuard, err)

		return from, e.fail(ctx, m, t, span, start, err)
	}

	if !allowed {
		span.SetAttributes(attribute.String("outcome", outcomeGuardRejected))
		e.logger.TransitionSkipped(ctx, m.ID(), t.Name(), fromLabel, SkipGuardRejected)
		e.observe(t, outcomeGuardRejected, time.Since(start))

		return from, nil
	}

	e.logger.TransitionStarted(ctx, m.ID(), t.Name(), fromLabel, toLabel)

	phase := PhaseExit
	defer e.recoverPanic(ctx, m, t, from, span, start, &phase)

	held := n.WithHeld(ctx)

	err = n.Do(func() error {
		return e.execute(held, m, t, from, &phase, args)
	})
	if err != nil {
		return from, e.fail(ctx, m, t, span, start, err)
	}

	duration := time.Since(start)

	span.SetAttributes(
		attribute.String("outcome", outcomeCommitted),
		attribute.Int64("duration_ms", duration.Milliseconds()),
	)
	span.SetStatus(codes.Ok, "committed")

	e.logger.TransitionCommitted(ctx, m.ID(), t.Name(), fromLabel, toLabel, duration)
	e.observe(t, outcomeCommitted, duration)

	return t.target, nil
}

// execute runs the critical section. The caller must hold m's notifier.
// phase tracks the step in progress so a panic can be attributed.
func (e *Executor[S]) execute(
	ctx context.Context, m *Machine[S], t *Spec[S], from S, phase *Phase, args []any,
) error {
	// Leaving the previous transition happens before anything of t runs.
	if previous := m.Active(); previous != nil {
		if err := previous.runExit(ctx, m, args); err != nil {
			return wrapTransitionError(t, from, PhaseExit, err)
		}
	}

	*phase = PhaseBefore

	if err := t.runBefore(ctx, m, args); err != nil {
		return wrapTransitionError(t, from, PhaseBefore, err)
	}

	if err := e.runActionThenAfter(ctx, m, t, from, phase, args); err != nil {
		return err
	}

	m.commit(t)

	return nil
}

// runActionThenAfter runs the action followed by the after hook. The after
// hook is deferred so it also runs when the action panics.
func (e *Executor[S]) runActionThenAfter(
	ctx context.Context, m *Machine[S], t *Spec[S], from S, phase *Phase, args []any,
) (err error) {
	defer func() {
		afterErr := wrapTransitionError(t, from, PhaseAfter, t.runAfter(ctx, m, args))
		if afterErr == nil {
			return
		}

		if err == nil {
			err = afterErr
		} else {
			err = errors.Join(err, afterErr)
		}
	}()

	*phase = PhaseAction
	err = wrapTransitionError(t, from, PhaseAction, t.runAction(ctx, m, args))
	*phase = PhaseAfter

	return err
}

// recoverPanic records a panic raised inside the critical section as a
// failure of the phase that was running, then re-raises it. The notifier
// has already woken waiters and released the lock by then.
func (e *Executor[S]) recoverPanic(
	ctx context.Context, m *Machine[S], t *Spec[S], from S, span trace.Span, start time.Time, phase *Phase,
) {
	r := recover()
	if r == nil {
		return
	}

	_ = e.fail(ctx, m, t, span, start, wrapTransitionError(t, from, *phase, fmt.Errorf("%w: %v", ErrPanicked, r)))

	panic(r)
}

func (e *Executor[S]) fail(
	ctx context.Context,
	m *Machine[S],
	t *Spec[S],
	span trace.Span,
	start time.Time,
	err error,
) error {
	duration := time.Since(start)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("outcome", outcomeError))

	e.logger.TransitionFailed(ctx, m.ID(), t.Name(), duration, err)
	e.observe(t, outcomeError, duration)

	return err
}

func (e *Executor[S]) observe(t *Spec[S], outcome string, duration time.Duration) {
	if !e.metrics {
		return
	}

	name := sanitizeTransition(t.Name())

	invocationsTotal.WithLabelValues(name, outcome).Inc()

	if outcome != outcomeInapplicable {
		invocationDuration.WithLabelValues(name, outcome).Observe(duration.Seconds())
	}
}
