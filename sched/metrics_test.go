package sched

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndGather(t *testing.T) {
	m := NewMetrics()
	m.SetQueueDepth("ready", 3)
	m.SetMemoryUsedPages(42)
	m.RecordSuspension()
	m.RecordPreemption()
	m.RecordTermination()
	m.RecordOOM("mid_level")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["threesched_queue_depth"])
	assert.True(t, names["threesched_memory_used_pages"])
	assert.True(t, names["threesched_suspensions_total"])
	assert.True(t, names["threesched_preemptions_total"])
	assert.True(t, names["threesched_terminations_total"])
	assert.True(t, names["threesched_out_of_memory_total"])

	assert.Equal(t, float64(1), testutil.ToFloat64(m.suspensions))
}
