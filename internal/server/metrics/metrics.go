// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AppLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_logins_total",
			Help: "Desktop app login attempts by flow and result.",
		},
		[]string{"flow", "result"},
	)

	PaymentsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Payment recording attempts by result.",
		},
		[]string{"result"},
	)

	LibrarySyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_syncs_total",
			Help: "Library reconciliations by result.",
		},
		[]string{"result"},
	)
)

// MustRegister registers every collector with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AppLoginsTotal,
		PaymentsRecordedTotal,
		LibrarySyncsTotal,
	)
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
