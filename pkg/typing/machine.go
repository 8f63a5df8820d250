// Package typing holds the per-user debounced typing indicator state.
package typing

import "time"

// Machine tracks which users are composing a message. A user is Typing while
// an entry exists for them; the entry is removed on expiry, explicit stop,
// message send, or disconnect.
//
// Machine is not safe for concurrent use. The owning room serializes all
// calls; a fired expiry timer re-enters that domain through the expired
// callback, which must end up calling Expired with the generation it was
// given so resets that raced the timer are ignored.
type Machine struct {
	window  time.Duration
	expired func(userID string, gen uint64)
	states  map[string]*state
}

type state struct {
	gen        uint64
	lastSignal time.Time
	timer      *time.Timer
}

func New(window time.Duration, expired func(userID string, gen uint64)) *Machine {
	return &Machine{
		window:  window,
		expired: expired,
		states:  make(map[string]*state),
	}
}

// Signal records a typing keystroke. It returns true on the Idle -> Typing
// transition, when a start_typing broadcast is due; repeated signals inside
// the window only push the expiry out.
func (m *Machine) Signal(userID string) bool {
	if st, ok := m.states[userID]; ok {
		st.timer.Stop()
		st.gen++
		st.lastSignal = time.Now()
		st.timer = m.schedule(userID, st.gen)
		return false
	}
	st := &state{gen: 1, lastSignal: time.Now()}
	st.timer = m.schedule(userID, st.gen)
	m.states[userID] = st
	return true
}

// Stop forces Typing -> Idle. It returns true when the user was actually
// Typing and a stop_typing broadcast is due; stopping an Idle user clears
// nothing and broadcasts nothing.
func (m *Machine) Stop(userID string) bool {
	st, ok := m.states[userID]
	if !ok {
		return false
	}
	st.timer.Stop()
	delete(m.states, userID)
	return true
}

// Expired handles a fired expiry timer. It returns true when the state was
// still current, meaning the forced Typing -> Idle transition happened and a
// stop_typing broadcast is due.
func (m *Machine) Expired(userID string, gen uint64) bool {
	st, ok := m.states[userID]
	if !ok || st.gen != gen {
		return false
	}
	delete(m.states, userID)
	return true
}

// Forget clears state and cancels the timer without any broadcast. Used on
// disconnect, where user_left already implies the user stopped typing.
func (m *Machine) Forget(userID string) {
	if st, ok := m.states[userID]; ok {
		st.timer.Stop()
		delete(m.states, userID)
	}
}

func (m *Machine) Typing(userID string) bool {
	_, ok := m.states[userID]
	return ok
}

func (m *Machine) schedule(userID string, gen uint64) *time.Timer {
	return time.AfterFunc(m.window, func() {
		m.expired(userID, gen)
	})
}
