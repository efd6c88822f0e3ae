package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid/pkg/domain"
)

func TestMetricsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TaskStarted(domain.KindRun)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeTasks))

	m.TaskFinished(domain.KindRun, domain.StatusFinished)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeTasks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksStarted.WithLabelValues("run")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksFinished.WithLabelValues("run", "finished")))

	m.ObserveStage("Assembly (Unicycler)", 1500*time.Millisecond)
	m.AddLogBytes(64)
	m.AddLogBytes(64)
	assert.Equal(t, 128.0, testutil.ToFloat64(m.logBytes))

	// Vec collectors only report label combinations that have been used, so
	// gathering after the activity above should surface every family.
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"capsid_active_tasks",
		"capsid_log_bytes_total",
		"capsid_stage_duration_seconds",
		"capsid_tasks_finished_total",
		"capsid_tasks_started_total",
	}, names)
}

func TestMetricsIsolatedRegistries(t *testing.T) {
	// Two engines in one process must not collide on registration.
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.TaskStarted(domain.KindAction)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.activeTasks))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.activeTasks))
}
