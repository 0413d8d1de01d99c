package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementDecision("settings", "deny_login")
	m.IncrementDecision("settings", "deny_login")
	m.IncrementBootstrap("refreshed")
	m.IncrementRenderFailure("home")
	m.IncrementFlash("error")
	m.ObserveRequest("home", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("settings", "deny_login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BootstrapOutcomes.WithLabelValues("refreshed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderFailures.WithLabelValues("home")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Flashes.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementDecision("a", "b")
		m.IncrementBootstrap("c")
		m.IncrementRenderFailure("d")
		m.IncrementFlash("e")
		m.ObserveRequest("f", 500, time.Second)
	})
}
