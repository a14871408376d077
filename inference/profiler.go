package inference

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// TimeTracker tracks operation timing statistics. It is safe for concurrent use.
type TimeTracker struct {
	mu        sync.Mutex
	count     int64
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
}

// StartOperation begins timing an operation.
//
// Returns:
//   - A function to call when the operation completes
func (t *TimeTracker) StartOperation() func() {
	start := time.Now()
	return func() {
		t.Record(time.Since(start))
	}
}

// Record adds one completed operation.
func (t *TimeTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 || d < t.minTime {
		t.minTime = d
	}
	if d > t.maxTime {
		t.maxTime = d
	}
	t.totalTime += d
	t.count++
}

// Stats is a snapshot of a TimeTracker.
type Stats struct {
	Count   int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
	Average time.Duration
}

// Stats returns the current statistics.
func (t *TimeTracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{Count: t.count, Total: t.totalTime, Min: t.minTime, Max: t.maxTime}
	if t.count > 0 {
		s.Average = t.totalTime / time.Duration(t.count)
	}
	return s
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("count", s.Count)
	enc.AddDuration("total", s.Total)
	enc.AddDuration("min", s.Min)
	enc.AddDuration("max", s.Max)
	enc.AddDuration("average", s.Average)
	if s.Average > 0 {
		enc.AddFloat64("throughput_fps", float64(time.Second)/float64(s.Average))
	}
	return nil
}
