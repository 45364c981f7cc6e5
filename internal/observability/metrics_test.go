package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/reports", "POST", 201, 10*time.Millisecond)
	m.RecordRequest("/reports", "POST", 201, 30*time.Millisecond)
	m.RecordError("/reports", "POST", "VALIDATION_FAILED")
	m.Inc("reports_submitted")
	m.Inc("reports_submitted")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 1)
	require.Equal(t, "POST /reports 201", snap.Requests[0].Key)
	require.Equal(t, int64(2), snap.Requests[0].Count)
	require.InDelta(t, 20.0, snap.Requests[0].AvgMillis, 0.01)
	require.Equal(t, int64(1), snap.Errors["POST /reports VALIDATION_FAILED"])
	require.Equal(t, int64(2), snap.Counters["reports_submitted"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.Inc("x")
	require.Empty(t, m.Snapshot().Requests)
}
