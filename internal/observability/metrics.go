package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the auth collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	verifications *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	issued        *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Bearer token verifications by outcome.",
		}, []string{"outcome"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_authorization_decisions_total",
			Help: "Authorization decisions by gate and reason.",
		}, []string{"gate", "reason"}),
		issued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Tokens issued by type.",
		}, []string{"type"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
	}
}

// Registry exposes the underlying registry, for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordVerification counts a verification attempt. outcome is "ok" or the
// error type of the failure.
func (m *Metrics) RecordVerification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

// RecordDecision counts an authorization decision for a gate ("role", "ownership")
func (m *Metrics) RecordDecision(gate, reason string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(gate, reason).Inc()
}

// RecordIssued counts issued tokens of a type ("access", "refresh")
func (m *Metrics) RecordIssued(tokenType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.issued.WithLabelValues(tokenType).Add(float64(n))
}

// RecordLogin counts a login attempt ("success", "failure")
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}
