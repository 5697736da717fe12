package slate

import (
	"sync"
	"time"
)

const statsRollingWindow = 5

// opStats accumulates the events of one operation type.
type opStats struct {
	count          int64
	rowsIn         int64
	rowsOut        int64
	totalRuntime   time.Duration
	recentRuntimes [statsRollingWindow]time.Duration
	recentHead     int
}

// RunStats is an Observer which accumulates statistics about the engine
// operations it sees: per-operation counts, rows consumed and produced, and
// runtimes with a rolling average over the most recent events. Install one
// with SetObserver. Safe for concurrent use.
type RunStats struct {
	mu        sync.Mutex
	startTime time.Time
	ops       map[EventType]*opStats
}

// NewRunStats returns an empty RunStats, started now.
func NewRunStats() *RunStats {
	return &RunStats{startTime: time.Now(), ops: make(map[EventType]*opStats)}
}

// OnEvent records one engine event.
func (rs *RunStats) OnEvent(e Event) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	os, ok := rs.ops[e.Type]
	if !ok {
		os = &opStats{}
		rs.ops[e.Type] = os
	}
	os.count++
	os.rowsIn += int64(e.RowsIn)
	os.rowsOut += int64(e.RowsOut)
	os.totalRuntime += e.Elapsed
	os.recentRuntimes[os.recentHead] = e.Elapsed
	os.recentHead = (os.recentHead + 1) % statsRollingWindow
}

// GetStartTime returns the time this RunStats was created
func (rs *RunStats) GetStartTime() time.Time {
	return rs.startTime
}

// GetRuntime returns the time elapsed since this RunStats was created
func (rs *RunStats) GetRuntime() time.Duration {
	return time.Since(rs.startTime)
}

// GetNumOps returns the number of recorded events of the given type
func (rs *RunStats) GetNumOps(t EventType) int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if os, ok := rs.ops[t]; ok {
		return os.count
	}
	return 0
}

// GetNumRowsProcessed returns the total rows consumed and produced by the
// recorded events of the given type
func (rs *RunStats) GetNumRowsProcessed(t EventType) (rowsIn, rowsOut int64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if os, ok := rs.ops[t]; ok {
		return os.rowsIn, os.rowsOut
	}
	return 0, 0
}

// GetOpRuntime returns the total runtime of the recorded events of the given
// type
func (rs *RunStats) GetOpRuntime(t EventType) time.Duration {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if os, ok := rs.ops[t]; ok {
		return os.totalRuntime
	}
	return 0
}

// GetCurrentOpProcessingTime returns a rolling average over the most recent
// runtimes of the given operation type
func (rs *RunStats) GetCurrentOpProcessingTime(t EventType) time.Duration {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	os, ok := rs.ops[t]
	if !ok {
		return 0
	}
	var total time.Duration
	for _, d := range os.recentRuntimes {
		total += d
	}
	return total / statsRollingWindow
}

// GetEventTypes returns the operation types recorded so far, in no
// particular order
func (rs *RunStats) GetEventTypes() []EventType {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]EventType, 0, len(rs.ops))
	for t := range rs.ops {
		out = append(out, t)
	}
	return out
}
