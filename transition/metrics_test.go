package transition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Metrics are process-wide, so these tests use transition names no other
// test uses and compare deltas.

func TestInvocationMetrics(t *testing.T) { //nolint:paralleltest
	exec := NewExecutor(
		WithDefaultState("idle"),
		WithLogger[string](nil),
		WithTracing[string](false),
	)

	start := New(From("idle"), "running").WithName("metrics_start")
	blocked := New(From("running"), "idle").WithName("metrics_blocked").WithGuard(
		func(context.Context, *Machine[string], ...any) (bool, error) { return false, nil })
	failing := New(From("running"), "done").WithName("metrics_failing").WithAction(
		func(context.Context, *Machine[string], ...any) error { return errors.New("boom") })

	count := func(name, outcome string) float64 {
		return testutil.ToFloat64(invocationsTotal.WithLabelValues(name, outcome))
	}

	initializedBefore := testutil.ToFloat64(machinesInitialized)
	committedBefore := count("metrics_start", outcomeCommitted)
	skippedBefore := count("metrics_start", outcomeInapplicable)
	rejectedBefore := count("metrics_blocked", outcomeGuardRejected)
	failedBefore := count("metrics_failing", outcomeError)

	m := NewMachine[string]()

	_, err := exec.Invoke(t.Context(), m, start)
	require.NoError(t, err)
	_, err = exec.Invoke(t.Context(), m, start)
	require.NoError(t, err)
	_, err = exec.Invoke(t.Context(), m, blocked)
	require.NoError(t, err)
	_, err = exec.Invoke(t.Context(), m, failing)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(machinesInitialized)-initializedBefore, 0)
	assert.InDelta(t, 1, count("metrics_start", outcomeCommitted)-committedBefore, 0)
	assert.InDelta(t, 1, count("metrics_start", outcomeInapplicable)-skippedBefore, 0)
	assert.InDelta(t, 1, count("metrics_blocked", outcomeGuardRejected)-rejectedBefore, 0)
	assert.InDelta(t, 1, count("metrics_failing", outcomeError)-failedBefore, 0)
}

func TestInvocationMetricsDisabled(t *testing.T) { //nolint:paralleltest
	exec := NewExecutor(
		WithDefaultState("idle"),
		WithLogger[string](nil),
		WithMetrics[string](false),
		WithTracing[string](false),
	)
	start := New(From("idle"), "running").WithName("metrics_disabled")

	before := testutil.ToFloat64(invocationsTotal.WithLabelValues("metrics_disabled", outcomeCommitted))

	_, err := exec.Invoke(t.Context(), NewMachine[string](), start)
	require.NoError(t, err)

	after := testutil.ToFloat64(invocationsTotal.WithLabelValues("metrics_disabled", outcomeCommitted))
	assert.InDelta(t, before, after, 0)
}

func TestWaitMetrics(t *testing.T) { //nolint:paralleltest
	exec := NewExecutor(
		WithDefaultState("idle"),
		WithLogger[string](nil),
		WithTracing[string](false),
	)

	uninitialized := testutil.ToFloat64(waitTotal.WithLabelValues(WaitUninitialized))
	timedOut := testutil.ToFloat64(waitTotal.WithLabelValues(WaitTimedOut))
	satisfied := testutil.ToFloat64(waitTotal.WithLabelValues(WaitSatisfied))

	m := NewMachine[string]()
	assert.False(t, exec.WaitForState(t.Context(), m, "running", 0))

	_, err := exec.Invoke(t.Context(), m, New(From("idle"), "running").WithName("metrics_wait"))
	require.NoError(t, err)

	assert.True(t, exec.WaitForState(t.Context(), m, "running", 0))
	assert.False(t, exec.WaitForState(t.Context(), m, "idle", 5*time.Millisecond))

	assert.InDelta(t, 1, testutil.ToFloat64(waitTotal.WithLabelValues(WaitUninitialized))-uninitialized, 0)
	assert.InDelta(t, 1, testutil.ToFloat64(waitTotal.WithLabelValues(WaitTimedOut))-timedOut, 0)
	assert.InDelta(t, 1, testutil.ToFloat64(waitTotal.WithLabelValues(WaitSatisfied))-satisfied, 0)
}

func TestSanitizeTransition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unnamed", sanitizeTransition(""))
	assert.Equal(t, "on", sanitizeTransition("on"))
}
