// Package liveness drives the heartbeat probe that flushes out connections
// which died without a close event.
package liveness

import "time"

// Monitor keeps exactly one probe cadence running while at least one
// participant is tracked. The probe callback re-enters the owning room's
// serialization domain, so Monitor itself is not safe for concurrent use:
// the room serializes Track and Untrack.
type Monitor struct {
	period  time.Duration
	probe   func()
	tracked map[string]struct{}
	stop    chan struct{}
}

func New(period time.Duration, probe func()) *Monitor {
	return &Monitor{
		period:  period,
		probe:   probe,
		tracked: make(map[string]struct{}),
	}
}

// Track registers userID for heartbeat coverage, starting the cadence on the
// first participant. Tracking an already-tracked user is a no-op.
func (m *Monitor) Track(userID string) {
	m.tracked[userID] = struct{}{}
	if m.stop == nil {
		m.stop = make(chan struct{})
		go m.run(m.stop)
	}
}

// Untrack cancels coverage for userID; the cadence retires when nobody is
// left. Idempotent.
func (m *Monitor) Untrack(userID string) {
	delete(m.tracked, userID)
	if len(m.tracked) == 0 && m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

func (m *Monitor) Tracking(userID string) bool {
	_, ok := m.tracked[userID]
	return ok
}

func (m *Monitor) Empty() bool {
	return len(m.tracked) == 0
}

func (m *Monitor) run(stop chan struct{}) {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.probe()
		case <-stop:
			return
		}
	}
}
