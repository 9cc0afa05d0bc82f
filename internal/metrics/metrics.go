// Package metrics provides lock-free in-process counters for session gate
// observability.
//
// # Design
//
// Counters are uint64 slots incremented atomically. The write path is
// allocation-free; [Metrics.Snapshot] deep-copies for readers.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import sessiongate or any sibling package.
//   - Expose global metric registries.
package metrics

import "sync/atomic"

// MetricID identifies a counter slot.
type MetricID uint16

const (
	MetricTokenIssued MetricID = iota
	MetricTokenDecodeFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshGraceAccept
	MetricReplayDetected
	MetricDeviceMismatch
	MetricIPMismatch
	MetricOriginRejected
	MetricPreconditionFailed
	MetricSignIn
	MetricSignOut
	MetricSessionInvalidated

	MetricIDCount
)

// Config controls metric collection. When Enabled is false all operations
// are no-ops.
type Config struct {
	Enabled bool
}

// Metrics holds the counter slots.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time deep copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter. Safe on a nil or disabled receiver.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of one counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot deep-copies all counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, int(MetricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
