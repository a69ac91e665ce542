package client

import (
	"sync"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	var m Metrics
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.incStates()
				m.incTick()
				_ = m.Snapshot()
			}
		}()
	}
	wg.Wait()
	m.addDecision(2e6)
	m.addDecision(4e6)

	got := m.Snapshot()
	if got["states_received"] != int64(800) || got["ticks"] != int64(800) {
		t.Fatalf("unexpected counters %v", got)
	}
	if got["decisions"] != int64(2) || got["avg_decision_ms"] != 3.0 {
		t.Fatalf("unexpected decision stats %v", got)
	}
	if got["errors"] != int64(0) {
		t.Fatalf("expected zero errors, got %v", got["errors"])
	}
}

func TestReadyStateString(t *testing.T) {
	tests := []struct {
		s    ReadyState
		want string
	}{
		{StateConnecting, "connecting"},
		{StateOpen, "open"},
		{StateClosing, "closing"},
		{StateClosed, "closed"},
		{ReadyState(9), "ReadyState(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}
