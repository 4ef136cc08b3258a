package transition_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/amp-labs/amp-transition/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeAll(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t, transition.WithFanoutWorkers[string](4))

	machines := make([]*transition.Machine[string], 20)
	for i := range machines {
		machines[i] = transition.NewMachine[string]()
	}

	// Half of the machines are already on, so "on" is a no-op for them.
	for _, m := range machines[:10] {
		_, err := exec.Invoke(t.Context(), m, onSpec())
		require.NoError(t, err)
	}

	states, err := exec.InvokeAll(t.Context(), machines, onSpec())
	require.NoError(t, err)
	require.Len(t, states, len(machines))

	for i, m := range machines {
		assert.Equal(t, "on", states[i], "machine %d", i)
		assert.Equal(t, "on", m.State(), "machine %d", i)
	}
}

func TestInvokeAllJoinsFailures(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t)

	machines := make([]*transition.Machine[string], 6)
	for i := range machines {
		machines[i] = transition.NewMachine(transition.WithID[string](fmt.Sprintf("lamp-%d", i)))
	}

	on := onSpec().WithAction(func(_ context.Context, m *transition.Machine[string], _ ...any) error {
		if strings.HasSuffix(m.ID(), "1") || strings.HasSuffix(m.ID(), "4") {
			return fmt.Errorf("%s: %w", m.ID(), errActionFailed)
		}

		return nil
	})

	states, err := exec.InvokeAll(t.Context(), machines, on)
	require.ErrorIs(t, err, errActionFailed)
	assert.Contains(t, err.Error(), "lamp-1")
	assert.Contains(t, err.Error(), "lamp-4")

	assert.Equal(t, []string{"on", "off", "on", "on", "off", "on"}, states)
}

func TestInvokeAllEmpty(t *testing.T) {
	t.Parallel()

	states, err := newTestExecutor(t).InvokeAll(t.Context(), nil, onSpec())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestInvokeAllCanceledReportsCurrentStates(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t, transition.WithFanoutWorkers[string](2))

	machines := make([]*transition.Machine[string], 8)
	for i := range machines {
		machines[i] = transition.NewMachine[string]()

		_, err := exec.Invoke(t.Context(), machines[i], onSpec())
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	states, err := exec.InvokeAll(ctx, machines, offSpec())
	require.Error(t, err)
	require.Len(t, states, len(machines))

	for i, m := range machines {
		assert.Equal(t, "on", states[i], "machine %d", i)
		assert.Equal(t, "on", m.State(), "machine %d", i)
	}
}
