package observability

import (
	"sync"
	"time"
)

// PipelineMetrics provides basic in-memory counters for one batch run.
type PipelineMetrics struct {
	mu            sync.Mutex
	processed     int64
	failed        int64
	retried       int64
	invalid       int64
	degradedUnits int64
	totalDuration time.Duration
}

// NewPipelineMetrics initializes metrics storage.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{}
}

// RecordProcessed increments the success counter.
func (m *PipelineMetrics) RecordProcessed(duration time.Duration, degraded, valid bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	m.totalDuration += duration
	if degraded {
		m.degradedUnits++
	}
	if !valid {
		m.invalid++
	}
}

// RecordFailed increments the terminal-failure counter.
func (m *PipelineMetrics) RecordFailed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

// RecordRetry increments the retry counter.
func (m *PipelineMetrics) RecordRetry() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retried++
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Processed     int64
	Failed        int64
	Retried       int64
	Invalid       int64
	DegradedUnits int64
	AvgDurationMS float64
}

// Snapshot returns current counter values without blocking writers for long.
func (m *PipelineMetrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Processed:     m.processed,
		Failed:        m.failed,
		Retried:       m.retried,
		Invalid:       m.invalid,
		DegradedUnits: m.degradedUnits,
	}
	if m.processed > 0 {
		snap.AvgDurationMS = float64(m.totalDuration.Milliseconds()) / float64(m.processed)
	}
	return snap
}
