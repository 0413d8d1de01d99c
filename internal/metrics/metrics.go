package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the web shell.
type Metrics struct {
	// Guard decisions by route name and decision
	GuardDecisions *prometheus.CounterVec

	// Session bootstrap outcomes
	BootstrapOutcomes *prometheus.CounterVec

	// Page render failures contained by the route boundary
	RenderFailures *prometheus.CounterVec

	// Flash messages sent by level
	Flashes *prometheus.CounterVec

	// Request latency by route name and status
	RequestDuration *prometheus.HistogramVec
}

// New registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GuardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gbans_web_guard_decisions_total",
			Help: "Permission guard decisions by route and decision",
		}, []string{"route", "decision"}),

		BootstrapOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gbans_web_session_bootstrap_total",
			Help: "Session bootstrap outcomes",
		}, []string{"outcome"}),

		RenderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gbans_web_render_failures_total",
			Help: "Page renders that failed and were replaced by the error notice",
		}, []string{"route"}),

		Flashes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gbans_web_flash_messages_total",
			Help: "Flash messages queued by level",
		}, []string{"level"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gbans_web_request_duration_seconds",
			Help:    "Duration of page requests by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) IncrementDecision(route, decision string) {
	if m != nil {
		m.GuardDecisions.WithLabelValues(route, decision).Inc()
	}
}

func (m *Metrics) IncrementBootstrap(outcome string) {
	if m != nil {
		m.BootstrapOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementRenderFailure(route string) {
	if m != nil {
		m.RenderFailures.WithLabelValues(route).Inc()
	}
}

func (m *Metrics) IncrementFlash(level string) {
	if m != nil {
		m.Flashes.WithLabelValues(level).Inc()
	}
}

// ObserveRequest records how long a page request took.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
