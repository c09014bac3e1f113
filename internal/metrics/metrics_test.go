package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveParse(0.1)
		m.ObserveApply(0.1)
		m.FileDone(OutcomeIndexed)
		m.SetRegistrySize(1, 2)
		m.SetDiagnostics(map[string]int{"warning": 1})
		m.WatcherEvent(3)
		m.Invariant()
	})
}

func TestCollectors(t *testing.T) {
	t.Parallel()

	m := New()
	m.FileDone(OutcomeIndexed)
	m.FileDone(OutcomeIndexed)
	m.FileDone(OutcomeUnchanged)
	m.SetRegistrySize(12, 40)
	m.SetDiagnostics(map[string]int{"warning": 3})
	m.SetDiagnostics(map[string]int{"error": 1})
	m.WatcherEvent(2)
	m.ObserveParse(0.01)

	body := scrape(t, m)
	assert.Contains(t, body, `feather_files_indexed_total{outcome="indexed"} 2`)
	assert.Contains(t, body, `feather_files_indexed_total{outcome="unchanged"} 1`)
	assert.Contains(t, body, "feather_global_symbols 12")
	assert.Contains(t, body, "feather_named_types 40")
	assert.Contains(t, body, `feather_diagnostics{severity="error"} 1`)
	assert.NotContains(t, body, `severity="warning"`, "reset drops stale severities")
	assert.Contains(t, body, "feather_watcher_events_total 2")
	assert.Contains(t, body, "feather_parse_seconds_count 1")
}

func TestNewUsesSeparateRegistries(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.Invariant()
	assert.Contains(t, scrape(t, a), "feather_invariant_failures_total 1")
	assert.Contains(t, scrape(t, b), "feather_invariant_failures_total 0")
}

func TestRegistryGathers(t *testing.T) {
	t.Parallel()

	m := New()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "feather_global_symbols")
	assert.Contains(t, names, "feather_watcher_events_total")
}
