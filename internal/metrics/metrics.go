// Package metrics holds the Prometheus collectors for the authentication flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome label values shared by the auth counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Auth counts login, forgot-password and reset-password attempts by outcome.
// A nil *Auth is valid and records nothing.
type Auth struct {
	Logins         *prometheus.CounterVec
	ResetRequests  *prometheus.CounterVec
	ResetConsumed  *prometheus.CounterVec
	EmailDelivered *prometheus.CounterVec
}

// NewAuth creates and registers the auth metrics.
func NewAuth(reg prometheus.Registerer) *Auth {
	m := &Auth{
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careadmin_auth_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		ResetRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careadmin_auth_reset_requests_total",
				Help: "Total number of forgot-password requests by outcome",
			},
			[]string{"outcome"},
		),
		ResetConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careadmin_auth_password_resets_total",
				Help: "Total number of reset-password attempts by outcome",
			},
			[]string{"outcome"},
		),
		EmailDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careadmin_email_deliveries_total",
				Help: "Total number of outbound emails by type and outcome",
			},
			[]string{"type", "outcome"},
		),
	}

	reg.MustRegister(m.Logins, m.ResetRequests, m.ResetConsumed, m.EmailDelivered)
	return m
}

func (m *Auth) Login(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Auth) ResetRequest(outcome string) {
	if m == nil {
		return
	}
	m.ResetRequests.WithLabelValues(outcome).Inc()
}

func (m *Auth) ResetConsume(outcome string) {
	if m == nil {
		return
	}
	m.ResetConsumed.WithLabelValues(outcome).Inc()
}

func (m *Auth) Email(emailType, outcome string) {
	if m == nil {
		return
	}
	m.EmailDelivered.WithLabelValues(emailType, outcome).Inc()
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus the auth metrics.
func NewRegistry() (*prometheus.Registry, *Auth) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewAuth(reg)
}
