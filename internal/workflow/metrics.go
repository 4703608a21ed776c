package workflow

import (
	"sync"
	"time"
)

// PatternMetrics are running statistics for one pattern.
type PatternMetrics struct {
	Pattern        PatternType `json:"pattern"`
	ExecutionCount int64       `json:"execution_count"`
	// AverageExecutionTime is a running mean in milliseconds.
	AverageExecutionTime float64   `json:"average_execution_time_ms"`
	SuccessRate          float64   `json:"success_rate"`
	LastExecuted         time.Time `json:"last_executed"`
}

// MetricsTracker owns the per-pattern records. Records are created once for
// each enabled pattern and never removed; all mutation goes through Record.
type MetricsTracker struct {
	records map[PatternType]*PatternMetrics
	now     func() time.Time
	mu      sync.Mutex
}

// NewMetricsTracker creates a record for every enabled pattern.
func NewMetricsTracker(enabled []PatternType) *MetricsTracker {
	t := &MetricsTracker{
		records: make(map[PatternType]*PatternMetrics, len(enabled)),
		now:     time.Now,
	}
	for _, p := range enabled {
		t.records[p] = &PatternMetrics{Pattern: p}
	}
	return t
}

// Enable adds a record for p if none exists yet. Existing records are untouched.
func (t *MetricsTracker) Enable(p PatternType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[p]; !ok {
		t.records[p] = &PatternMetrics{Pattern: p}
	}
}

// Record folds one execution into the running statistics for p. It reports
// false when p is not tracked.
func (t *MetricsTracker) Record(p PatternType, elapsed time.Duration, success bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.records[p]
	if !ok {
		return false
	}

	m.ExecutionCount++
	n := float64(m.ExecutionCount)
	ms := float64(elapsed) / float64(time.Millisecond)
	m.AverageExecutionTime = runningMean(m.AverageExecutionTime, ms, n)

	var outcome float64
	if success {
		outcome = 1
	}
	m.SuccessRate = runningMean(m.SuccessRate, outcome, n)
	m.LastExecuted = t.now()
	return true
}

// Get returns a copy of the record for p.
func (t *MetricsTracker) Get(p PatternType) (PatternMetrics, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.records[p]
	if !ok {
		return PatternMetrics{}, errMetricsNotFound(p)
	}
	return *m, nil
}

// Snapshot returns copies of all records.
func (t *MetricsTracker) Snapshot() map[PatternType]PatternMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[PatternType]PatternMetrics, len(t.records))
	for p, m := range t.records {
		out[p] = *m
	}
	return out
}

// runningMean folds x into a mean over n samples, n counting x.
func runningMean(old, x, n float64) float64 {
	if n <= 0 {
		return old
	}
	return (old*(n-1) + x) / n
}
