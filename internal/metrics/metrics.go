// Package metrics holds the Prometheus collectors shared by the storage
// engine and the HTTP layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quizboard"

type Metrics struct {
	TxTotal         *prometheus.CounterVec
	TxDuration      *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg. A nil registerer
// leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TxTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "tx_total",
			Help:      "Storage transactions by operation and outcome.",
		}, []string{"op", "outcome"}),
		TxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "tx_duration_seconds",
			Help:      "Storage transaction latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	if reg != nil {
		reg.MustRegister(m.TxTotal, m.TxDuration, m.RequestsTotal, m.RequestDuration)
	}
	return m
}

func (m *Metrics) ObserveTx(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TxTotal.WithLabelValues(op, outcome).Inc()
	m.TxDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
