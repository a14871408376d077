package inference

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeTracker(t *testing.T) {
	var tracker TimeTracker
	assert.Equal(t, Stats{}, tracker.Stats())

	for _, d := range []time.Duration{30, 10, 20} {
		tracker.Record(d * time.Millisecond)
	}

	assert.Equal(t, Stats{
		Count:   3,
		Total:   60 * time.Millisecond,
		Min:     10 * time.Millisecond,
		Max:     30 * time.Millisecond,
		Average: 20 * time.Millisecond,
	}, tracker.Stats())
}

func TestTimeTrackerConcurrent(t *testing.T) {
	var tracker TimeTracker
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				done := tracker.StartOperation()
				done()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), tracker.Stats().Count)
}

func TestStatsLogObject(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	stats := Stats{Count: 2, Total: 100 * time.Millisecond, Average: 50 * time.Millisecond}

	zap.New(core).Info("inference", zap.Object("stats", stats))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()["stats"].(map[string]any)
		assert.Equal(t, int64(2), fields["count"])
		assert.InDelta(t, 20.0, fields["throughput_fps"], 1e-9)
	}
}
