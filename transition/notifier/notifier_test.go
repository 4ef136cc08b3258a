package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// waitForWaiters spins until n has the expected number of blocked waiters.
func waitForWaiters(t *testing.T, n *ChangeNotifier, want int64) {
	t.Helper()

	require.Eventually(t, func() bool {
		return n.Waiters() == want
	}, time.Second, time.Millisecond)
}

func TestDoNotifiesOnExit(t *testing.T) {
	t.Parallel()

	n := New()
	woken := make(chan bool, 1)

	go func() {
		n.Lock()
		defer n.Unlock()

		woken <- n.Wait(context.Background(), time.Time{})
	}()

	waitForWaiters(t, n, 1)

	err := n.Do(func() error {
		time.Sleep(10 * time.Millisecond)

		return nil
	})
	require.NoError(t, err)

	select {
	case ok := <-woken:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestDoNotifiesOnError(t *testing.T) {
	t.Parallel()

	n := New()
	woken := make(chan bool, 1)

	go func() {
		n.Lock()
		defer n.Unlock()

		woken <- n.Wait(context.Background(), time.Time{})
	}()

	waitForWaiters(t, n, 1)

	err := n.Do(func() error {
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	select {
	case ok := <-woken:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after failed critical section")
	}
}

func TestDoNotifiesAndUnlocksOnPanic(t *testing.T) {
	t.Parallel()

	n := New()
	woken := make(chan bool, 1)

	go func() {
		n.Lock()
		defer n.Unlock()

		woken <- n.Wait(context.Background(), time.Time{})
	}()

	waitForWaiters(t, n, 1)

	assert.Panics(t, func() {
		_ = n.Do(func() error {
			panic("boom")
		})
	})

	select {
	case ok := <-woken:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after panic")
	}

	// The lock must have been released.
	n.Lock()
	n.Unlock() //nolint:staticcheck // empty critical section checks the lock is free
}

func TestWaitDeadline(t *testing.T) {
	t.Parallel()

	n := New()

	n.Lock()
	defer n.Unlock()

	start := time.Now()
	ok := n.Wait(context.Background(), start.Add(30*time.Millisecond))

	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, int64(0), n.Waiters())
}

func TestWaitPastDeadlineReturnsImmediately(t *testing.T) {
	t.Parallel()

	n := New()

	n.Lock()
	defer n.Unlock()

	assert.False(t, n.Wait(context.Background(), time.Now().Add(-time.Second)))
}

func TestWaitContextCanceled(t *testing.T) {
	t.Parallel()

	n := New()
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan bool, 1)

	go func() {
		n.Lock()
		defer n.Unlock()

		result <- n.Wait(ctx, time.Time{})
	}()

	waitForWaiters(t, n, 1)
	cancel()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("wait did not observe cancellation")
	}
}

func TestWaitForPredicate(t *testing.T) {
	t.Parallel()

	n := New()
	counter := 0

	var wg sync.WaitGroup

	result := make(chan bool, 1)

	wg.Add(1)

	go func() {
		defer wg.Done()

		n.Lock()
		defer n.Unlock()

		result <- n.WaitFor(context.Background(), func() bool {
			return counter >= 3
		}, time.Now().Add(5*time.Second))
	}()

	for range 3 {
		waitForWaiters(t, n, 1)

		_ = n.Do(func() error {
			counter++

			return nil
		})
	}

	wg.Wait()
	assert.True(t, <-result)
}

func TestWaitForTimesOut(t *testing.T) {
	t.Parallel()

	n := New()

	n.Lock()
	defer n.Unlock()

	start := time.Now()
	ok := n.WaitFor(context.Background(), func() bool { return false }, start.Add(50*time.Millisecond))

	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitForSatisfiedWithoutBlocking(t *testing.T) {
	t.Parallel()

	n := New()

	n.Lock()
	defer n.Unlock()

	assert.True(t, n.WaitFor(context.Background(), func() bool { return true }, time.Now()))
	assert.Equal(t, int64(0), n.Waiters())
}

func TestBroadcastWakesAllWaiters(t *testing.T) {
	t.Parallel()

	const waiters = 5

	var n ChangeNotifier

	results := make(chan bool, waiters)

	for range waiters {
		go func() {
			n.Lock()
			defer n.Unlock()

			results <- n.Wait(context.Background(), time.Now().Add(5*time.Second))
		}()
	}

	waitForWaiters(t, &n, waiters)

	_ = n.Do(func() error { return nil })

	for range waiters {
		select {
		case ok := <-results:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("not all waiters were woken")
		}
	}
}

func TestWithHeld(t *testing.T) {
	t.Parallel()

	outer, inner, other := New(), New(), New()

	ctx := outer.WithHeld(context.Background())
	assert.True(t, outer.IsHeld(ctx))
	assert.False(t, inner.IsHeld(ctx))

	ctx = inner.WithHeld(ctx)
	assert.True(t, outer.IsHeld(ctx))
	assert.True(t, inner.IsHeld(ctx))
	assert.False(t, other.IsHeld(ctx))

	assert.False(t, outer.IsHeld(context.Background()))

	var unset *ChangeNotifier
	assert.False(t, unset.IsHeld(ctx))
}
