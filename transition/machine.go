package transition

import (
	"sync"

	"github.com/amp-labs/amp-transition/transition/notifier"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// snapshot is the committed (state, active spec) pair. It is replaced as a
// whole so readers never see one field updated without the other.
type snapshot[S comparable] struct {
	state  S
	active *Spec[S]
}

// Machine holds the runtime state of one state-carrying object: its current
// state, the Spec that most recently committed, and the ChangeNotifier that
// serializes commits.
//
// The zero value is an uninitialized machine. It is initialized on the first
// transition invoked on it, exactly once. Embed a Machine (or a pointer to
// one) in the type that owns the state. A Machine must not be copied after
// first use.
type Machine[S comparable] struct {
	once        sync.Once
	initialized atomic.Bool
	current     atomic.Pointer[snapshot[S]]

	// Set before first use by options, then fixed by initialize.
	id              string
	notifier        *notifier.ChangeNotifier
	initialState    S
	hasInitialState bool
}

// MachineOption configures a Machine created by NewMachine.
type MachineOption[S comparable] func(*Machine[S])

// WithInitialState sets the state a machine starts in. Without it the
// executor's default state is used.
func WithInitialState[S comparable](state S) MachineOption[S] {
	return func(m *Machine[S]) {
		m.initialState = state
		m.hasInitialState = true
	}
}

// WithNotifier makes the machine use n instead of creating its own. Use it
// only when several machines must deliberately share one lock and wake set.
func WithNotifier[S comparable](n *notifier.ChangeNotifier) MachineOption[S] {
	return func(m *Machine[S]) {
		m.notifier = n
	}
}

// WithID sets the machine ID used in logs and traces. A random UUID is
// assigned otherwise.
func WithID[S comparable](id string) MachineOption[S] {
	return func(m *Machine[S]) {
		m.id = id
	}
}

// NewMachine returns an uninitialized machine with the given options.
func NewMachine[S comparable](opts ...MachineOption[S]) *Machine[S] {
	m := &Machine[S]{}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// initialize fills in every field that was not configured. It returns true
// only for the call that performed the initialization.
func (m *Machine[S]) initialize(defaultState S) bool {
	did := false

	m.once.Do(func() {
		state := defaultState
		if m.hasInitialState {
			state = m.initialState
		}

		if m.notifier == nil {
			m.notifier = notifier.New()
		}

		if m.id == "" {
			m.id = uuid.New().String()
		}

		m.current.Store(&snapshot[S]{state: state})
		m.initialized.Store(true)

		did = true
	})

	return did
}

// Initialized reports whether any transition has been invoked on m.
func (m *Machine[S]) Initialized() bool {
	return m.initialized.Load()
}

// State returns the current state, or the zero value before initialization.
func (m *Machine[S]) State() S {
	state, _ := m.Snapshot()

	return state
}

// Active returns the Spec that most recently committed, or nil.
func (m *Machine[S]) Active() *Spec[S] {
	_, active := m.Snapshot()

	return active
}

// Snapshot returns the current state and active Spec as one consistent pair.
func (m *Machine[S]) Snapshot() (S, *Spec[S]) {
	snap := m.current.Load()
	if snap == nil {
		var zero S

		return zero, nil
	}

	return snap.state, snap.active
}

// ID returns the machine ID, or "" before initialization.
func (m *Machine[S]) ID() string {
	if !m.initialized.Load() {
		return ""
	}

	return m.id
}

// Notifier returns the machine's ChangeNotifier, or nil before
// initialization.
func (m *Machine[S]) Notifier() *notifier.ChangeNotifier {
	if !m.initialized.Load() {
		return nil
	}

	return m.notifier
}

// commit publishes the new state and active spec. The caller must hold the
// notifier lock.
func (m *Machine[S]) commit(t *Spec[S]) {
	m.current.Store(&snapshot[S]{state: t.target, active: t})
}
