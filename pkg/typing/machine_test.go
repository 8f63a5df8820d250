package typing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type expiry struct {
	userID string
	gen    uint64
}

func newTestMachine(window time.Duration) (*Machine, chan expiry) {
	fired := make(chan expiry, 16)
	m := New(window, func(userID string, gen uint64) {
		fired <- expiry{userID: userID, gen: gen}
	})
	return m, fired
}

func TestSignalTransitionsOnce(t *testing.T) {
	m, _ := newTestMachine(time.Hour)

	require.True(t, m.Signal("alice"))
	require.True(t, m.Typing("alice"))

	// Further signals inside the window only reset the timer.
	require.False(t, m.Signal("alice"))
	require.False(t, m.Signal("alice"))
}

func TestStopIsIdempotent(t *testing.T) {
	m, _ := newTestMachine(time.Hour)

	m.Signal("alice")
	require.True(t, m.Stop("alice"))
	require.False(t, m.Typing("alice"))

	// Stopping an idle user broadcasts nothing.
	require.False(t, m.Stop("alice"))
	require.False(t, m.Stop("ghost"))
}

func TestExpiryFiresAndForcesIdle(t *testing.T) {
	m, fired := newTestMachine(20 * time.Millisecond)

	m.Signal("alice")

	var e expiry
	select {
	case e = <-fired:
	case <-time.After(time.Second):
		t.Fatal("expiry timer never fired")
	}
	require.Equal(t, "alice", e.userID)

	require.True(t, m.Expired(e.userID, e.gen))
	require.False(t, m.Typing("alice"))

	// A duplicate delivery of the same expiry is a no-op.
	require.False(t, m.Expired(e.userID, e.gen))
}

func TestStaleExpiryIsIgnored(t *testing.T) {
	m, _ := newTestMachine(time.Hour)

	m.Signal("alice")
	m.Signal("alice") // bumps the generation

	require.False(t, m.Expired("alice", 1))
	require.True(t, m.Typing("alice"))
}

func TestSignalAfterStopStartsAgain(t *testing.T) {
	m, _ := newTestMachine(time.Hour)

	require.True(t, m.Signal("alice"))
	require.True(t, m.Stop("alice"))
	require.True(t, m.Signal("alice"))
}

func TestForgetCancelsWithoutBroadcast(t *testing.T) {
	m, fired := newTestMachine(20 * time.Millisecond)

	m.Signal("alice")
	m.Forget("alice")
	require.False(t, m.Typing("alice"))

	select {
	case <-fired:
		t.Fatal("timer fired after Forget")
	case <-time.After(60 * time.Millisecond):
	}
}
