// Package metrics собирает Prometheus-метрики вызовов eBay и этапов оформления заказа.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streamcheckout"

// Metrics набор счётчиков сервиса.
type Metrics struct {
	UpstreamRequests  *prometheus.CounterVec
	UpstreamLatencyMS *prometheus.HistogramVec
	Orders            *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of eBay API calls.",
		}, []string{"operation", "status"}),
		UpstreamLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_ms",
			Help:      "eBay API call latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}, []string{"operation"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Checkout stages by result.",
		}, []string{"stage", "result"}),
	}
	reg.MustRegister(m.UpstreamRequests, m.UpstreamLatencyMS, m.Orders)
	return m
}

// ObserveUpstream записывает один вызов eBay.
func (m *Metrics) ObserveUpstream(operation, status string, d time.Duration) {
	m.UpstreamRequests.WithLabelValues(operation, status).Inc()
	m.UpstreamLatencyMS.WithLabelValues(operation).Observe(float64(d.Milliseconds()))
}

// ObserveOrder записывает завершение этапа initiate или finalize.
func (m *Metrics) ObserveOrder(stage string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Orders.WithLabelValues(stage, result).Inc()
}
