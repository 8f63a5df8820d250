package liveness

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeStartsWithFirstParticipant(t *testing.T) {
	var probes atomic.Int64
	m := New(10*time.Millisecond, func() { probes.Add(1) })

	require.True(t, m.Empty())
	m.Track("alice")
	require.True(t, m.Tracking("alice"))

	require.Eventually(t, func() bool { return probes.Load() >= 2 },
		time.Second, 5*time.Millisecond)
}

func TestProbeStopsWhenEmpty(t *testing.T) {
	var probes atomic.Int64
	m := New(10*time.Millisecond, func() { probes.Add(1) })

	m.Track("alice")
	m.Track("bob")
	require.Eventually(t, func() bool { return probes.Load() >= 1 },
		time.Second, 5*time.Millisecond)

	// Still one cadence while anyone remains.
	m.Untrack("alice")
	require.False(t, m.Empty())

	m.Untrack("bob")
	require.True(t, m.Empty())

	// Let any in-flight tick settle, then confirm the cadence retired.
	time.Sleep(30 * time.Millisecond)
	settled := probes.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, settled, probes.Load())
}

func TestTrackAndUntrackAreIdempotent(t *testing.T) {
	var probes atomic.Int64
	m := New(10*time.Millisecond, func() { probes.Add(1) })

	m.Track("alice")
	m.Track("alice")
	m.Untrack("alice")
	require.True(t, m.Empty())

	// Untracking an absent user must not panic or close anything twice.
	m.Untrack("alice")
	m.Untrack("ghost")
}

func TestCadenceRestartsAfterRefill(t *testing.T) {
	var probes atomic.Int64
	m := New(10*time.Millisecond, func() { probes.Add(1) })

	m.Track("alice")
	m.Untrack("alice")
	time.Sleep(30 * time.Millisecond)
	before := probes.Load()

	m.Track("bob")
	require.Eventually(t, func() bool { return probes.Load() > before },
		time.Second, 5*time.Millisecond)
	m.Untrack("bob")
}
