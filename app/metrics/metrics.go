package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeIssued         = "issued"
	OutcomeUnknownEmail   = "unknown_email"
	OutcomeSuccess        = "success"
	OutcomeInvalid        = "invalid"
	OutcomeExpired        = "expired"
	OutcomeAccountMissing = "account_missing"
	OutcomeWeakPassword   = "weak_password"
	OutcomeFailure        = "failure"
	OutcomeError          = "error"
)

// Login method labels.
const (
	MethodCredentials = "credentials"
	MethodGoogle      = "google"
	MethodGitHub      = "github"
)

// Metrics holds the auth counters. The zero value is not usable; build one
// with New.
type Metrics struct {
	resetRequests    *prometheus.CounterVec
	resetRedemptions *prometheus.CounterVec
	logins           *prometheus.CounterVec
	mailDeliveries   *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg registers
// them on a private registry, which keeps tests independent of each other.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		resetRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codetrust_password_reset_requests_total",
			Help: "Password reset requests by outcome",
		}, []string{"outcome"}),
		resetRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codetrust_password_reset_redemptions_total",
			Help: "Password reset redemptions by outcome",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codetrust_logins_total",
			Help: "Sign-in attempts by method and outcome",
		}, []string{"method", "outcome"}),
		mailDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codetrust_mail_deliveries_total",
			Help: "Outgoing email deliveries by kind and outcome",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(m.resetRequests, m.resetRedemptions, m.logins, m.mailDeliveries)
	return m
}

func (m *Metrics) RecordResetRequest(outcome string) {
	m.resetRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordResetRedemption(outcome string) {
	m.resetRedemptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLogin(method, outcome string) {
	m.logins.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) RecordMailDelivery(kind, outcome string) {
	m.mailDeliveries.WithLabelValues(kind, outcome).Inc()
}

// ResetRequests exposes the vector for assertions in tests.
func (m *Metrics) ResetRequests() *prometheus.CounterVec { return m.resetRequests }

func (m *Metrics) ResetRedemptions() *prometheus.CounterVec { return m.resetRedemptions }

func (m *Metrics) Logins() *prometheus.CounterVec { return m.logins }

func (m *Metrics) MailDeliveries() *prometheus.CounterVec { return m.mailDeliveries }
