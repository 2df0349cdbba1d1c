package recorder

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cap-mahdi/TP2-devops/pkg/logging"
	"github.com/cap-mahdi/TP2-devops/pkg/metrics"
)

func newRegistry(t *testing.T) *metrics.Registry {
	t.Helper()
	r := metrics.NewRegistry()
	require.NoError(t, metrics.RegisterStandard(r))
	return r
}

func operations(t *testing.T, reg *metrics.Registry, kind string, outcome Outcome) float64 {
	t.Helper()
	c, err := reg.Counter(metrics.UserOperationsTotal)
	require.NoError(t, err)
	v, err := c.Value(kind, string(outcome))
	require.NoError(t, err)
	return v
}

func TestOutcome_Valid(t *testing.T) {
	tests := []struct {
		outcome Outcome
		valid   bool
	}{
		{OutcomeSuccess, true},
		{OutcomeError, true},
		{OutcomeNotFound, true},
		{"", false},
		{"timeout", false},
		{"SUCCESS", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.outcome.Valid())
		})
	}
}

func TestRecordOperation(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	rec := New(reg)

	rec.RecordOperation(OpUpdate, OutcomeNotFound)
	rec.RecordOperation(OpCreate, OutcomeSuccess)
	rec.RecordOperation(OpCreate, OutcomeSuccess)

	assert.Equal(t, 1.0, operations(t, reg, OpUpdate, OutcomeNotFound))
	assert.Equal(t, 2.0, operations(t, reg, OpCreate, OutcomeSuccess))
	assert.Equal(t, 0.0, operations(t, reg, OpCreate, OutcomeError))
}

func TestRecordOperation_InvalidOutcomeIsDropped(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	var logs bytes.Buffer
	rec := New(reg, WithLogger(logging.New(logging.Config{Output: &logs})))

	assert.NotPanics(t, func() { rec.RecordOperation(OpRead, "exploded") })
	assert.Contains(t, logs.String(), "unknown outcome")

	c, err := reg.Counter(metrics.UserOperationsTotal)
	require.NoError(t, err)
	assert.Empty(t, c.Collect())
}

func TestRecordOperation_MissingMetricIsLogged(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	rec := New(metrics.NewRegistry(), WithLogger(logging.New(logging.Config{Output: &logs})))

	assert.NotPanics(t, func() {
		rec.RecordOperation(OpList, OutcomeSuccess)
		rec.RecordDependencyLatency("find_all", time.Millisecond)
	})
	assert.Contains(t, logs.String(), "failed to record operation")
	assert.Contains(t, logs.String(), "failed to record dependency latency")
}

func TestRecordOperation_LateRegistration(t *testing.T) {
	t.Parallel()
	reg := metrics.NewRegistry()
	rec := New(reg)

	rec.RecordOperation(OpDelete, OutcomeSuccess)
	require.NoError(t, metrics.RegisterStandard(reg))
	rec.RecordOperation(OpDelete, OutcomeSuccess)

	assert.Equal(t, 1.0, operations(t, reg, OpDelete, OutcomeSuccess))
}

func TestRecordDependencyLatency(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	rec := New(reg)

	rec.RecordDependencyLatency("find_user", 20*time.Millisecond)
	rec.RecordDependencyLatency("find_user", 300*time.Millisecond)
	rec.RecordDependencyLatency("find_user", -time.Second)

	h, err := reg.Histogram(metrics.DependencyResponseTime)
	require.NoError(t, err)
	snap, err := h.Snapshot("find_user")
	require.NoError(t, err)

	assert.Equal(t, uint64(2), snap.Count)
	assert.InDelta(t, 0.32, snap.Sum, 1e-9)
	// 0.025 bucket holds only the 20ms call
	for _, b := range snap.Buckets {
		if b.UpperBound == 0.025 {
			assert.Equal(t, uint64(1), b.CumulativeCount)
		}
	}
}

func TestTime(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	rec := New(reg)

	stop := rec.Time("slow_query")
	time.Sleep(2 * time.Millisecond)
	stop()

	h, err := reg.Histogram(metrics.DependencyResponseTime)
	require.NoError(t, err)
	snap, err := h.Snapshot("slow_query")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Count)
	assert.GreaterOrEqual(t, snap.Sum, 0.002)
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.RecordOperation(OpRead, OutcomeSuccess)
		rec.RecordDependencyLatency("x", time.Second)
		rec.Time("x")()
	})
}

func TestRecordOperation_Concurrent(t *testing.T) {
	t.Parallel()
	reg := newRegistry(t)
	rec := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec.RecordOperation(OpRead, OutcomeSuccess)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5000.0, operations(t, reg, OpRead, OutcomeSuccess))
}
