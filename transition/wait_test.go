package transition_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/amp-transition/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForStateUninitializedMachine(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()

	start := time.Now()
	ok := exec.WaitForState(t.Context(), m, "on", time.Second)

	assert.False(t, ok)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, m.Initialized())
}

func TestWaitForStateNilMachine(t *testing.T) {
	t.Parallel()

	assert.False(t, newTestExecutor(t).WaitForState(t.Context(), nil, "on", time.Second))
}

func TestWaitForStateAlreadySatisfied(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()

	_, err := exec.Invoke(t.Context(), m, onSpec())
	require.NoError(t, err)

	assert.True(t, exec.WaitForState(t.Context(), m, "on", time.Second))
	assert.True(t, exec.WaitForState(t.Context(), m, "on", 0))
}

func TestWaitForStateZeroTimeoutChecksOnce(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()

	_, err := exec.Invoke(t.Context(), m, onSpec())
	require.NoError(t, err)

	assert.False(t, exec.WaitForState(t.Context(), m, "off", 0))
}

func TestWaitForStateWokenByTransition(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()
	on := onSpec()

	_, err := exec.Invoke(t.Context(), m, offSpec())
	require.NoError(t, err)
	require.True(t, m.Initialized())

	go func() {
		time.Sleep(10 * time.Millisecond)

		_, _ = exec.Invoke(context.Background(), m, on)
	}()

	start := time.Now()
	ok := exec.WaitForState(t.Context(), m, "on", time.Second)

	assert.True(t, ok)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, "on", m.State())
}

func TestWaitForStateTimesOut(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()

	_, err := exec.Invoke(t.Context(), m, offSpec())
	require.NoError(t, err)

	start := time.Now()
	ok := exec.WaitForState(t.Context(), m, "on", 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestWaitForStateIgnoresOtherStates(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()
	broken := transition.New(transition.Any[string](), "broken").WithName("break")

	_, err := exec.Invoke(t.Context(), m, offSpec())
	require.NoError(t, err)

	go func() {
		time.Sleep(5 * time.Millisecond)

		_, _ = exec.Invoke(context.Background(), m, broken)
	}()

	// Woken by the commit to "broken", but the predicate keeps it waiting.
	assert.False(t, exec.WaitForState(t.Context(), m, "on", 60*time.Millisecond))
	assert.Equal(t, "broken", m.State())
}

func TestWaitForStateContextCanceled(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()

	_, err := exec.Invoke(t.Context(), m, offSpec())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan bool, 1)

	go func() {
		done <- exec.WaitForState(ctx, m, "on", transition.NoTimeout)
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after cancellation")
	}
}

func TestWaitForStateWakesEveryWaiter(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()

	_, err := exec.Invoke(t.Context(), m, offSpec())
	require.NoError(t, err)

	const waiters = 5

	results := make([]bool, waiters)

	var wg sync.WaitGroup

	for i := range waiters {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = exec.WaitForState(context.Background(), m, "on", time.Second)
		}()
	}

	require.Eventually(t, func() bool {
		return m.Notifier().Waiters() == waiters
	}, time.Second, time.Millisecond)

	_, err = exec.Invoke(t.Context(), m, onSpec())
	require.NoError(t, err)

	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "waiter %d", i)
	}
}

func TestPackageLevelWaitForState(t *testing.T) {
	t.Parallel()

	m := transition.NewMachine(transition.WithInitialState("off"))

	_, err := transition.Invoke(t.Context(), m, onSpec())
	require.NoError(t, err)

	assert.True(t, transition.WaitForState(t.Context(), m, "on", 0))
}

func TestBound(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)
	m := transition.NewMachine[string]()
	on := transition.Bind(exec, m, onSpec())
	off := transition.Bind(exec, m, offSpec())

	assert.Same(t, m, on.Machine())
	assert.Equal(t, "on", on.Spec().Name())

	// Nothing has initialized the machine yet.
	assert.False(t, on.Wait(t.Context(), 0))

	state, err := on.Call(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "on", state)

	go func() {
		time.Sleep(10 * time.Millisecond)

		_, _ = off.Call(context.Background())
	}()

	assert.True(t, off.Wait(t.Context(), time.Second))
	assert.Equal(t, "off", m.State())
}

func TestBindWithNilExecutor(t *testing.T) {
	t.Parallel()

	m := transition.NewMachine(transition.WithInitialState("off"))
	b := transition.Bind(nil, m, onSpec())

	state, err := b.Call(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "on", state)
}
