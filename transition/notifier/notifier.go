// Package notifier provides ChangeNotifier, a mutex paired with a broadcast
// signal. It serializes state commits and lets other goroutines block until
// a commit they care about has happened.
//
// The discipline is the same as a condition variable: Wait and WaitFor must
// be called while holding the lock, and they release it while blocked.
// Unlike sync.Cond, a wait can be bounded by a deadline or a context.
package notifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ChangeNotifier is a mutual-exclusion lock with a broadcast signal.
// The zero value is ready to use. A ChangeNotifier must not be copied
// after first use.
type ChangeNotifier struct {
	mu sync.Mutex

	// signal is closed on Broadcast and replaced lazily by the next waiter.
	// Guarded by mu.
	signal chan struct{}

	waiters atomic.Int64
}

// New returns a new ChangeNotifier.
func New() *ChangeNotifier {
	return &ChangeNotifier{}
}

// Lock blocks until exclusive access is obtained.
func (n *ChangeNotifier) Lock() {
	n.mu.Lock()
}

// Unlock releases exclusive access without waking waiters.
func (n *ChangeNotifier) Unlock() {
	n.mu.Unlock()
}

// Broadcast wakes every goroutine currently blocked in Wait or WaitFor.
// The caller must hold the lock.
func (n *ChangeNotifier) Broadcast() {
	if n.signal != nil {
		close(n.signal)
		n.signal = nil
	}
}

// Do runs fn while holding the lock. On every exit path, including an
// error return or a panic inside fn, all waiters are woken before the
// lock is released. The error returned by fn is passed through unchanged.
func (n *ChangeNotifier) Do(fn func() error) error {
	n.mu.Lock()

	defer func() {
		n.Broadcast()
		n.mu.Unlock()
	}()

	return fn()
}

type heldKey struct{}

// holder is one link in the chain of notifiers held by a call stack.
type holder struct {
	n      *ChangeNotifier
	parent *holder
}

// WithHeld returns a copy of ctx that records n as held. Pass it to code
// running inside Do so it can detect, through IsHeld, that taking the lock
// again would deadlock.
func (n *ChangeNotifier) WithHeld(ctx context.Context) context.Context {
	parent, _ := ctx.Value(heldKey{}).(*holder)

	return context.WithValue(ctx, heldKey{}, &holder{n: n, parent: parent})
}

// IsHeld reports whether ctx was derived from WithHeld on n.
func (n *ChangeNotifier) IsHeld(ctx context.Context) bool {
	if n == nil || ctx == nil {
		return false
	}

	for h, _ := ctx.Value(heldKey{}).(*holder); h != nil; h = h.parent {
		if h.n == n {
			return true
		}
	}

	return false
}

// Waiters returns the number of goroutines currently blocked waiting.
func (n *ChangeNotifier) Waiters() int64 {
	return n.waiters.Load()
}

// Wait performs a single wait cycle. The caller must hold the lock; it is
// released while blocked and re-acquired before Wait returns.
//
// A zero deadline means no deadline. Wait returns true if it was woken by a
// broadcast and false if the deadline passed or ctx was done first.
func (n *ChangeNotifier) Wait(ctx context.Context, deadline time.Time) bool {
	var timeout <-chan time.Time

	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}

		timer := time.NewTimer(remaining)
		defer timer.Stop()

		timeout = timer.C
	}

	// Capture the signal under the lock so a broadcast issued between
	// Unlock and select is not lost.
	if n.signal == nil {
		n.signal = make(chan struct{})
	}

	signal := n.signal

	n.waiters.Inc()
	n.mu.Unlock()

	woken := false

	select {
	case <-signal:
		woken = true
	case <-timeout:
	case <-ctx.Done():
	}

	n.mu.Lock()
	n.waiters.Dec()

	return woken
}

// WaitFor blocks until pred returns true, the deadline passes, or ctx is
// done. The caller must hold the lock, and pred is always evaluated with the
// lock held. Remaining time is recomputed after every wake, so spurious
// wakeups only cause another check.
//
// A zero deadline means no deadline. WaitFor returns true if pred was
// satisfied.
func (n *ChangeNotifier) WaitFor(ctx context.Context, pred func() bool, deadline time.Time) bool {
	for !pred() {
		if ctx.Err() != nil {
			return false
		}

		if !n.Wait(ctx, deadline) {
			// The deadline may have passed while a broadcast was in flight.
			return pred()
		}
	}

	return true
}
