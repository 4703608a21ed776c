package workflow

import (
	"sync"
	"time"
)

// Status is a point-in-time view of process-wide counters.
type Status struct {
	IsRunning       bool    `json:"is_running"`
	ActiveWorkflows int     `json:"active_workflows"`
	TotalRequests   int64   `json:"total_requests"`
	ErrorRate       float64 `json:"error_rate"`
	// AverageResponseTime is a running mean in milliseconds.
	AverageResponseTime float64 `json:"average_response_time_ms"`
}

// StatusTracker guards the process counters. Every request touches it, so all
// reads and writes hold mu.
type StatusTracker struct {
	status Status
	mu     sync.Mutex
}

// NewStatusTracker creates a stopped tracker with zeroed counters.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

// SetRunning flips the running flag. Counters are kept.
func (s *StatusTracker) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.IsRunning = running
}

// Begin counts a new request as in flight.
func (s *StatusTracker) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.TotalRequests++
	s.status.ActiveWorkflows++
}

// Complete marks a request as finished successfully.
func (s *StatusTracker) Complete(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()

	ms := float64(elapsed) / float64(time.Millisecond)
	s.status.AverageResponseTime = runningMean(s.status.AverageResponseTime, ms, float64(s.status.TotalRequests))
}

// Fail marks a request as finished with an error. The error rate is recomputed
// against the current request total.
func (s *StatusTracker) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()

	total := float64(s.status.TotalRequests)
	if total < 1 {
		total = 1
	}
	s.status.ErrorRate = (total*s.status.ErrorRate + 1) / total
}

// release decrements the gauge without letting it go negative. Caller holds mu.
func (s *StatusTracker) release() {
	if s.status.ActiveWorkflows > 0 {
		s.status.ActiveWorkflows--
	}
}

// Snapshot returns a copy of the counters.
func (s *StatusTracker) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
