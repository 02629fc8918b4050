package mq

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace    = "mqipc"
	instrumentationName = "github.com/srediag/plugin-mq/pkg/mq"
)

// Metrics are the prometheus collectors updated by channels.
type Metrics struct {
	Sent          prometheus.Counter
	Received      prometheus.Counter
	BytesSent     prometheus.Counter
	BytesReceived prometheus.Counter
	Truncated     prometheus.Counter
	Errors        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages enqueued.",
		}),
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages dequeued.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_sent_total",
			Help:      "Payload bytes enqueued, after truncation.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_received_total",
			Help:      "Payload bytes returned to receivers.",
		}),
		Truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payload_truncated_total",
			Help:      "Messages whose payload was cut at the buffer capacity.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Failed channel operations by operation.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Sent, m.Received, m.BytesSent, m.BytesReceived, m.Truncated, m.Errors)
	}
	return m
}
