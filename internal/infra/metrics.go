package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight run counters without external dependencies.
// Uses atomic operations so a reporter goroutine can read while a run is in progress.
type Metrics struct {
	// Counters
	ticksProcessed   atomic.Uint64
	signalsGenerated atomic.Uint64
	ordersFilled     atomic.Uint64
	ordersFailed     atomic.Uint64
	ordersRejected   atomic.Uint64
	errorsTotal      atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordTick records a processed tick with its step latency.
func (m *Metrics) RecordTick(latencyNs int64) {
	m.ticksProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordSignal records a strategy signal.
func (m *Metrics) RecordSignal() {
	m.signalsGenerated.Add(1)
}

// RecordOrderFilled records a filled order.
func (m *Metrics) RecordOrderFilled() {
	m.ordersFilled.Add(1)
}

// RecordOrderFailed records a simulated execution failure.
func (m *Metrics) RecordOrderFailed() {
	m.ordersFailed.Add(1)
}

// RecordOrderRejected records an order refused by validation or position checks.
func (m *Metrics) RecordOrderRejected() {
	m.ordersRejected.Add(1)
}

// RecordError records an error that aborted a run.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	TicksProcessed   uint64
	SignalsGenerated uint64
	OrdersFilled     uint64
	OrdersFailed     uint64
	OrdersRejected   uint64
	ErrorsTotal      uint64
	AvgLatencyNs     int64
	Timestamp        time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		TicksProcessed:   m.ticksProcessed.Load(),
		SignalsGenerated: m.signalsGenerated.Load(),
		OrdersFilled:     m.ordersFilled.Load(),
		OrdersFailed:     m.ordersFailed.Load(),
		OrdersRejected:   m.ordersRejected.Load(),
		ErrorsTotal:      m.errorsTotal.Load(),
		AvgLatencyNs:     avgLatency,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.ticksProcessed.Store(0)
	m.signalsGenerated.Store(0)
	m.ordersFilled.Store(0)
	m.ordersFailed.Store(0)
	m.ordersRejected.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
}
