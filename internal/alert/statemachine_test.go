package alert

import (
	"testing"

	"netwatch/internal/domain"
)

func up(ms int64) domain.ProbeResult {
	return domain.ProbeResult{TimestampMs: 1, Up: true, ResponseTimeMs: ms, StatusCode: 200}
}

func down() domain.ProbeResult {
	return domain.ProbeResult{TimestampMs: 1, Up: false, Error: "connection refused"}
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		history []domain.ProbeResult
		want    []Kind // one entry per result; "" means no notification
	}{
		{"first up", []domain.ProbeResult{up(50)}, []Kind{KindInitialUp}},
		{"first down", []domain.ProbeResult{down()}, []Kind{KindInitialDown}},
		{"stays up quietly", []domain.ProbeResult{up(50), up(60), up(70)}, []Kind{KindInitialUp, "", ""}},
		{"stays down quietly", []domain.ProbeResult{down(), down(), down()}, []Kind{KindInitialDown, "", ""}},
		{"up then down", []domain.ProbeResult{up(50), down()}, []Kind{KindInitialUp, KindDown}},
		{"recovery", []domain.ProbeResult{down(), up(50)}, []Kind{KindInitialDown, KindUp}},
		{"slow repeats every tick", []domain.ProbeResult{up(50), up(1500), up(1500)}, []Kind{KindInitialUp, KindSlow, KindSlow}},
		{"slow boundary is exclusive", []domain.ProbeResult{up(50), up(1000)}, []Kind{KindInitialUp, ""}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := NewStateMachine(1000)
			for i, r := range c.history {
				kind, ok := m.Evaluate("t1", r)
				if !ok && c.want[i] != "" {
					t.Fatalf("step %d: want %q, got no notification", i, c.want[i])
				}
				if ok && kind != c.want[i] {
					t.Fatalf("step %d: want %q, got %q", i, c.want[i], kind)
				}
			}
		})
	}
}

// The documented end-to-end sequence: unset -> up -> down -> recovery that is
// also slow -> a later slow tick while already up.
func TestFlapAndSlowScenario(t *testing.T) {
	m := NewStateMachine(1000)

	kind, ok := m.Evaluate("t1", up(50))
	if !ok || kind != KindInitialUp {
		t.Fatalf("want initial-up, got %q ok=%v", kind, ok)
	}

	kind, ok = m.Evaluate("t1", down())
	if !ok || kind != KindDown {
		t.Fatalf("want down, got %q ok=%v", kind, ok)
	}

	// recovery wins over slow: the transition notification fires
	kind, ok = m.Evaluate("t1", up(1500))
	if !ok || kind != KindUp {
		t.Fatalf("want recovery, got %q ok=%v", kind, ok)
	}

	// still up, still slow: performance alert, not a state change
	kind, ok = m.Evaluate("t1", up(1500))
	if !ok || kind != KindSlow {
		t.Fatalf("want slow, got %q ok=%v", kind, ok)
	}
	kind, ok = m.Evaluate("t1", up(100))
	if ok {
		t.Fatalf("fast up tick should be quiet, got %q", kind)
	}
}

// Availability notifications must alternate: never two downs (or two ups)
// without the opposite transition between them.
func TestNoConsecutiveAvailabilityNotifications(t *testing.T) {
	m := NewStateMachine(1000)

	sequence := []domain.ProbeResult{
		down(), down(), up(10), up(10), down(), up(10), down(), down(), down(), up(10),
	}

	var transitions []Kind
	for _, r := range sequence {
		kind, ok := m.Evaluate("t1", r)
		if !ok || kind == KindSlow {
			continue
		}
		transitions = append(transitions, kind)
	}

	isDown := func(k Kind) bool { return k == KindDown || k == KindInitialDown }
	for i := 1; i < len(transitions); i++ {
		if isDown(transitions[i]) == isDown(transitions[i-1]) {
			t.Fatalf("consecutive same-direction notifications: %v", transitions)
		}
	}
}

func TestRestoreSuppressesReannounce(t *testing.T) {
	m := NewStateMachine(1000)
	m.Restore("t1", up(50))

	// same availability after restart: quiet
	if kind, ok := m.Evaluate("t1", up(60)); ok {
		t.Fatalf("restored up state should not re-announce, got %q", kind)
	}
	// a real change still notifies
	if kind, ok := m.Evaluate("t1", down()); !ok || kind != KindDown {
		t.Fatalf("want down after restore, got %q ok=%v", kind, ok)
	}

	m.Restore("t2", down())
	if kind, ok := m.Evaluate("t2", down()); ok {
		t.Fatalf("restored down state should not re-announce, got %q", kind)
	}
}

func TestTargetsAreIndependent(t *testing.T) {
	m := NewStateMachine(1000)
	m.Evaluate("a", up(10))
	if kind, ok := m.Evaluate("b", down()); !ok || kind != KindInitialDown {
		t.Fatalf("state leaked across targets: %q ok=%v", kind, ok)
	}
}
