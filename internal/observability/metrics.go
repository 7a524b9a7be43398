package observability

import (
	"sync"
)

// ScanMetrics counts breach-scanner activity in memory, exposed through the
// health endpoint.
type ScanMetrics struct {
	mu             sync.Mutex
	sweeps         int64
	skippedSweeps  int64
	ticketsScanned int64
	transitions    map[string]int64
	itemFailures   int64
}

// NewScanMetrics initializes metrics storage.
func NewScanMetrics() *ScanMetrics {
	return &ScanMetrics{transitions: make(map[string]int64)}
}

// RecordSweep counts one completed sweep and its scanned tickets.
func (m *ScanMetrics) RecordSweep(scanned int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	m.ticketsScanned += int64(scanned)
}

// RecordSkippedSweep counts a sweep that did not run because the previous one
// was still in flight or another instance held the lock.
func (m *ScanMetrics) RecordSkippedSweep() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skippedSweeps++
}

// RecordTransition counts one compliance transition by target state.
func (m *ScanMetrics) RecordTransition(toState string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[toState]++
}

// RecordItemFailure counts one per-ticket scan failure.
func (m *ScanMetrics) RecordItemFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemFailures++
}

// Snapshot returns a copy of the counters for reporting.
func (m *ScanMetrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{
		"sweeps":          m.sweeps,
		"skipped_sweeps":  m.skippedSweeps,
		"tickets_scanned": m.ticketsScanned,
		"item_failures":   m.itemFailures,
	}
	for state, n := range m.transitions {
		out["transitions_"+state] = n
	}
	return out
}
