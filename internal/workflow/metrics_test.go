package workflow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRunningMean(t *testing.T) {
	tracker := NewMetricsTracker([]PatternType{PatternRouting})
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }

	runs := []struct {
		elapsed time.Duration
		success bool
	}{
		{100 * time.Millisecond, true},
		{300 * time.Millisecond, false},
		{200 * time.Millisecond, true},
		{400 * time.Millisecond, true},
	}

	var total float64
	var successes int
	for _, r := range runs {
		require.True(t, tracker.Record(PatternRouting, r.elapsed, r.success))
		total += float64(r.elapsed.Milliseconds())
		if r.success {
			successes++
		}
	}

	m, err := tracker.Get(PatternRouting)
	require.NoError(t, err)
	assert.Equal(t, int64(len(runs)), m.ExecutionCount)
	assert.InDelta(t, total/float64(len(runs)), m.AverageExecutionTime, 1e-9)
	assert.InDelta(t, float64(successes)/float64(len(runs)), m.SuccessRate, 1e-9)
	assert.Equal(t, fixed, m.LastExecuted)
}

func TestMetricsUntrackedPattern(t *testing.T) {
	tracker := NewMetricsTracker([]PatternType{PatternRouting})

	assert.False(t, tracker.Record(PatternEvaluatorOptimizer, time.Millisecond, true))

	_, err := tracker.Get(PatternEvaluatorOptimizer)
	require.Error(t, err)
	ae := AsAgentError(err)
	assert.Equal(t, CodeWorkflowMetricsNotFound, ae.Code)
	assert.False(t, ae.Recoverable)
}

func TestMetricsEnableKeepsExisting(t *testing.T) {
	tracker := NewMetricsTracker([]PatternType{PatternRouting})
	tracker.Record(PatternRouting, time.Millisecond, true)

	tracker.Enable(PatternRouting)
	tracker.Enable("custom")

	snap := tracker.Snapshot()
	assert.Equal(t, int64(1), snap[PatternRouting].ExecutionCount)
	assert.Contains(t, snap, PatternType("custom"))
}

func TestMetricsGetReturnsCopy(t *testing.T) {
	tracker := NewMetricsTracker([]PatternType{PatternRouting})
	m, _ := tracker.Get(PatternRouting)
	m.ExecutionCount = 99

	again, _ := tracker.Get(PatternRouting)
	assert.Zero(t, again.ExecutionCount)
}

func TestMetricsConcurrentRecord(t *testing.T) {
	tracker := NewMetricsTracker([]PatternType{PatternParallelFanout})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Record(PatternParallelFanout, 10*time.Millisecond, i%4 != 0)
		}(i)
	}
	wg.Wait()

	m, _ := tracker.Get(PatternParallelFanout)
	assert.Equal(t, int64(100), m.ExecutionCount)
	assert.InDelta(t, 0.75, m.SuccessRate, 1e-9)
	assert.InDelta(t, 10.0, m.AverageExecutionTime, 1e-9)
}

func TestRunningMean(t *testing.T) {
	assert.Equal(t, 5.0, runningMean(0, 5, 1))
	assert.Equal(t, 7.5, runningMean(5, 10, 2))
	assert.Equal(t, 3.0, runningMean(3, 100, 0))
}
