package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes recorded by Metrics.RecordRefresh
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshSkipped = "skipped"
)

// Metrics holds the client counters
type Metrics struct {
	requests      *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	forcedLogouts prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and response status.",
		}, []string{"method", "status"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "client",
			Name:      "token_refresh_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "client",
			Name:      "forced_logouts_total",
			Help:      "Sessions torn down after a 401 response.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.requests, m.refreshes, m.forcedLogouts} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// RecordRequest counts one completed request. status 0 means the request
// never got a response.
func (m *Metrics) RecordRequest(method string, status int) {
	if m == nil {
		return
	}
	m.RequestCounter(method, status).Inc()
}

// RecordRefresh counts one refresh attempt
func (m *Metrics) RecordRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// RecordForcedLogout counts one 401 teardown
func (m *Metrics) RecordForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}

// RequestCounter returns the request counter for method and status
func (m *Metrics) RequestCounter(method string, status int) prometheus.Counter {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	return m.requests.WithLabelValues(method, label)
}

// RefreshCounter returns the refresh counter for outcome
func (m *Metrics) RefreshCounter(outcome string) prometheus.Counter {
	return m.refreshes.WithLabelValues(outcome)
}

// ForcedLogoutCounter returns the forced logout counter
func (m *Metrics) ForcedLogoutCounter() prometheus.Counter {
	return m.forcedLogouts
}
