// Package metrics exposes service counters over Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	RequestsReceived  prometheus.Counter
	ScamsDetected     prometheus.Counter
	SessionsFinalized prometheus.Counter
	ReportsPushed     prometheus.Counter
	ActiveSessions    prometheus.Gauge
}

// New creates the collectors on a private registry and returns them
// together with the scrape handler for /metrics.
func New() (*Metrics, http.Handler) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "scamtrap_requests_received_total",
			Help: "Inbound chat requests processed.",
		}),
		ScamsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "scamtrap_scams_detected_total",
			Help: "Turns flagged as risky by the analyzer.",
		}),
		SessionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "scamtrap_sessions_finalized_total",
			Help: "Sessions moved to the archive, manually or by timeout.",
		}),
		ReportsPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "scamtrap_reports_pushed_total",
			Help: "Scam intelligence reports delivered externally.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scamtrap_active_sessions",
			Help: "Sessions currently in the active store.",
		}),
	}

	return m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
