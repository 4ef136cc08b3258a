// Package transitiontest provides helpers for testing code built on the
// transition package.
//
// A Recorder produces guards and hooks that log every call, so a test can
// assert exactly which lifecycle steps ran and in what order:
//
//	rec := transitiontest.NewRecorder[string]()
//	on := transitiontest.Instrument(rec, transition.New(transition.From("off"), "on").WithName("on"))
//	_, _ = transition.Invoke(ctx, m, on)
//	rec.AssertSequence(t, "on.before", "on.action", "on.after")
package transitiontest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/amp-transition/transition"
	"github.com/stretchr/testify/assert"
)

// Entry records a single guard, hook or action call.
type Entry struct {
	Timestamp  time.Time
	Transition string
	Phase      string
	State      string
	Args       []any
}

// Label returns "<transition>.<phase>".
func (e Entry) Label() string {
	return e.Transition + "." + e.Phase
}

// Recorder collects Entries from concurrent goroutines.
type Recorder[S comparable] struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder[S comparable]() *Recorder[S] {
	return &Recorder[S]{}
}

func (r *Recorder[S]) record(name, phase string, m *transition.Machine[S], args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var state string
	if m != nil {
		state = fmt.Sprint(m.State())
	}

	r.entries = append(r.entries, Entry{
		Timestamp:  time.Now(),
		Transition: name,
		Phase:      phase,
		State:      state,
		Args:       slices.Clone(args),
	})
}

// Hook returns a hook that records a call for name and phase, then runs next
// if it is not nil.
func (r *Recorder[S]) Hook(name, phase string, next transition.Hook[S]) transition.Hook[S] {
	return func(ctx context.Context, m *transition.Machine[S], args ...any) error {
		r.record(name, phase, m, args)

		if next == nil {
			return nil
		}

		return next(ctx, m, args...)
	}
}

// Action returns an action that records a call, then runs next if not nil.
func (r *Recorder[S]) Action(name string, next transition.Action[S]) transition.Action[S] {
	return func(ctx context.Context, m *transition.Machine[S], args ...any) error {
		r.record(name, "action", m, args)

		if next == nil {
			return nil
		}

		return next(ctx, m, args...)
	}
}

// Guard returns a guard that records a call and answers with allow.
func (r *Recorder[S]) Guard(name string, allow func() bool) transition.Guard[S] {
	return func(_ context.Context, m *transition.Machine[S], args ...any) (bool, error) {
		r.record(name, "guard", m, args)

		return allow(), nil
	}
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder[S]) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.entries)
}

// Labels returns the label of every entry in order.
func (r *Recorder[S]) Labels() []string {
	entries := r.Entries()

	labels := make([]string, len(entries))
	for i, entry := range entries {
		labels[i] = entry.Label()
	}

	return labels
}

// Count returns how many entries have the given label.
func (r *Recorder[S]) Count(label string) int {
	count := 0

	for _, l := range r.Labels() {
		if l == label {
			count++
		}
	}

	return count
}

// Reset discards all entries.
func (r *Recorder[S]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
}

// AssertSequence checks that the recorded labels equal want exactly.
func (r *Recorder[S]) AssertSequence(t *testing.T, want ...string) bool {
	t.Helper()

	if want == nil {
		want = []string{}
	}

	got := r.Labels()
	if got == nil {
		got = []string{}
	}

	return assert.Equal(t, want, got, "recorded hook sequence")
}

// AssertBefore checks that the first entry labeled first precedes the first
// entry labeled second.
func (r *Recorder[S]) AssertBefore(t *testing.T, first, second string) bool {
	t.Helper()

	labels := r.Labels()
	i := slices.Index(labels, first)
	j := slices.Index(labels, second)

	if !assert.NotEqual(t, -1, i, "%q was not recorded", first) ||
		!assert.NotEqual(t, -1, j, "%q was not recorded", second) {
		return false
	}

	return assert.Less(t, i, j, "%q should be recorded before %q", first, second)
}

// Instrument returns a copy of spec whose exit, before, action and after
// record into r under spec's name. They replace the spec's own callbacks;
// pass Callbacks to run behavior after each recorded call. The guard is left
// untouched.
func Instrument[S comparable](
	r *Recorder[S], spec *transition.Spec[S], callbacks ...Callbacks[S],
) *transition.Spec[S] {
	var cb Callbacks[S]
	if len(callbacks) > 0 {
		cb = callbacks[0]
	}

	name := spec.Name()

	return spec.
		WithExit(r.Hook(name, "exit", cb.Exit)).
		WithBefore(r.Hook(name, "before", cb.Before)).
		WithAction(r.Action(name, cb.Action)).
		WithAfter(r.Hook(name, "after", cb.After))
}

// Callbacks are optional behaviors run after a recorded call, typically used
// to inject failures.
type Callbacks[S comparable] struct {
	Exit   transition.Hook[S]
	Before transition.Hook[S]
	Action transition.Action[S]
	After  transition.Hook[S]
}
