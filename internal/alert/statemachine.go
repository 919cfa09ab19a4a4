package alert

import (
	"sync"

	"netwatch/internal/domain"
)

// Kind names the notification a transition produced.
type Kind string

const (
	KindInitialUp   Kind = "initial-up"
	KindInitialDown Kind = "initial-down"
	KindUp          Kind = "up"
	KindDown        Kind = "down"
	KindSlow        Kind = "slow"
)

type state int8

const (
	stateUnset state = iota
	stateUp
	stateDown
)

// StateMachine remembers the last announced availability per target and
// deduplicates alerts: availability changes notify once per transition,
// while slow responses re-notify on every occurrence by design.
//
// Evaluate must see a target's results in append order; the scheduler
// guarantees no two probes for the same target overlap.
type StateMachine struct {
	slowThresholdMs int64

	mu     sync.Mutex
	states map[string]state
}

func NewStateMachine(slowThresholdMs int64) *StateMachine {
	if slowThresholdMs <= 0 {
		slowThresholdMs = 1000
	}
	return &StateMachine{
		slowThresholdMs: slowThresholdMs,
		states:          make(map[string]state),
	}
}

// Restore seeds a target's state from its last stored result, so a restart
// does not re-announce an availability that was already notified. State is
// never persisted on its own; the stored series is the source of truth.
func (m *StateMachine) Restore(targetID string, last domain.ProbeResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last.Up {
		m.states[targetID] = stateUp
	} else {
		m.states[targetID] = stateDown
	}
}

// Evaluate applies one result to a target's state and reports which
// notification, if any, it warrants. The transition commits here, before any
// delivery attempt, so a failed send can never cause a re-announce loop.
func (m *StateMachine) Evaluate(targetID string, r domain.ProbeResult) (Kind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.states[targetID] {
	case stateUnset:
		if r.Up {
			m.states[targetID] = stateUp
			return KindInitialUp, true
		}
		m.states[targetID] = stateDown
		return KindInitialDown, true

	case stateUp:
		if !r.Up {
			m.states[targetID] = stateDown
			return KindDown, true
		}
		if r.ResponseTimeMs > m.slowThresholdMs {
			// Not a state change: every slow tick notifies again.
			return KindSlow, true
		}
		return "", false

	default: // stateDown
		if r.Up {
			m.states[targetID] = stateUp
			return KindUp, true
		}
		return "", false
	}
}
