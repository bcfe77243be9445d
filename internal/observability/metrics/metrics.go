package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// HTTPMetrics instruments the gin request path.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// Metrics counts ledger outcomes.
type Metrics struct {
	visitsRecorded     prometheus.Counter
	redemptions        prometheus.Counter
	redemptionFailures *prometheus.CounterVec
}

func NewHTTPMetrics() *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perkly_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perkly_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	prometheus.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func NewMetrics() *Metrics {
	m := &Metrics{
		visitsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perkly_visits_recorded_total",
			Help: "Successful visit accruals.",
		}),
		redemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perkly_redemptions_total",
			Help: "Successful reward redemptions.",
		}),
		redemptionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perkly_redemption_failures_total",
			Help: "Failed reward redemptions by reason.",
		}, []string{"reason"}),
	}
	prometheus.MustRegister(m.visitsRecorded, m.redemptions, m.redemptionFailures)
	return m
}

func (m *HTTPMetrics) Observe(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordVisit() {
	if m == nil {
		return
	}
	m.visitsRecorded.Inc()
}

func (m *Metrics) RecordRedemption() {
	if m == nil {
		return
	}
	m.redemptions.Inc()
}

func (m *Metrics) RecordRedemptionFailure(reason string) {
	if m == nil {
		return
	}
	m.redemptionFailures.WithLabelValues(reason).Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(NewHTTPMetrics),
	fx.Provide(NewMetrics),
)
