package infra

import (
	"testing"
)

func TestMetrics_RecordTick(t *testing.T) {
	m := &Metrics{}

	m.RecordTick(1000)
	m.RecordTick(2000)
	m.RecordTick(3000)

	snap := m.Snapshot()

	if snap.TicksProcessed != 3 {
		t.Errorf("Expected 3 ticks, got %d", snap.TicksProcessed)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Orders(t *testing.T) {
	m := &Metrics{}

	m.RecordSignal()
	m.RecordSignal()
	m.RecordSignal()
	m.RecordOrderFilled()
	m.RecordOrderFailed()
	m.RecordOrderRejected()

	snap := m.Snapshot()
	if snap.SignalsGenerated != 3 {
		t.Errorf("Expected 3 signals, got %d", snap.SignalsGenerated)
	}
	if snap.OrdersFilled != 1 || snap.OrdersFailed != 1 || snap.OrdersRejected != 1 {
		t.Errorf("Unexpected order counters: %+v", snap)
	}
}

func TestMetrics_NoLatencySamples(t *testing.T) {
	m := &Metrics{}
	if snap := m.Snapshot(); snap.AvgLatencyNs != 0 {
		t.Errorf("Expected 0 avg latency, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordTick(1000)
	m.RecordError()
	m.RecordOrderFilled()

	m.Reset()
	snap := m.Snapshot()

	if snap.TicksProcessed != 0 {
		t.Error("Expected 0 ticks after reset")
	}
	if snap.ErrorsTotal != 0 {
		t.Error("Expected 0 errors after reset")
	}
	if snap.OrdersFilled != 0 {
		t.Error("Expected 0 fills after reset")
	}
}
