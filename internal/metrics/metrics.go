// Package metrics exposes Prometheus counters for logins, session
// resolution and the expiry sweeper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webauth"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	loginAttempts      *prometheus.CounterVec
	sessionResolutions *prometheus.CounterVec
	sessionsIssued     prometheus.Counter
	sweptRows          *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		loginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "OAuth login returns by outcome.",
		}, []string{"outcome"}),
		sessionResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resolutions_total",
			Help:      "Session cookie resolutions by outcome.",
		}, []string{"outcome"}),
		sessionsIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_issued_total",
			Help:      "Sessions created after a successful login.",
		}),
		sweptRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_rows_total",
			Help:      "Rows deleted by the expiry sweeper.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionResolution(outcome string) {
	if m == nil {
		return
	}
	m.sessionResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.sessionsIssued.Inc()
}

func (m *Metrics) Swept(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptRows.WithLabelValues(kind).Add(float64(n))
}
