package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the security-relevant session events. A nil *Metrics is
// valid and counts nothing, which keeps tests free of registry setup.
type Metrics struct {
	sessionsIssued   prometheus.Counter
	refreshRotations prometheus.Counter
	refreshRejected  prometheus.Counter
	oauthLogins      *prometheus.CounterVec
}

// NewMetrics registers the session counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lablink_auth_sessions_issued_total",
			Help: "Sessions issued (local login and federated login).",
		}),
		refreshRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lablink_auth_refresh_rotations_total",
			Help: "Successful refresh-token rotations.",
		}),
		refreshRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lablink_auth_refresh_rejected_total",
			Help: "Refresh attempts rejected (unknown, reused, expired, or forged tokens).",
		}),
		oauthLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lablink_auth_oauth_logins_total",
			Help: "Completed federated logins by provider.",
		}, []string{"provider"}),
	}
	if reg != nil {
		reg.MustRegister(m.sessionsIssued, m.refreshRotations, m.refreshRejected, m.oauthLogins)
	}
	return m
}

func (m *Metrics) incIssued() {
	if m != nil {
		m.sessionsIssued.Inc()
	}
}

func (m *Metrics) incRotated() {
	if m != nil {
		m.refreshRotations.Inc()
	}
}

func (m *Metrics) incRejected() {
	if m != nil {
		m.refreshRejected.Inc()
	}
}

func (m *Metrics) incOAuthLogin(provider string) {
	if m != nil {
		m.oauthLogins.WithLabelValues(provider).Inc()
	}
}
