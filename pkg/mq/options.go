package mq

import (
	"os"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/plugin-mq/internal/logging"
)

const (
	// DefaultCapacity is the size of the message text buffer in bytes.
	DefaultCapacity = 1024
	// DefaultPerm is the creation mode of new queues.
	DefaultPerm os.FileMode = 0o666
	// DefaultType is the message type used by the rendezvous.
	DefaultType int64 = 1
)

type options struct {
	capacity int
	perm     os.FileMode
	strict   bool
	metrics  *Metrics
	tracer   trace.Tracer
	meter    metric.Meter
	logger   *logging.Logger
}

// Option configures a Channel.
type Option func(*options)

func defaultOptions() options {
	return options{
		capacity: DefaultCapacity,
		perm:     DefaultPerm,
		tracer:   tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:    metricnoop.NewMeterProvider().Meter(instrumentationName),
		logger:   logging.Nop(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}

// WithCapacity sets the message text size. Both ends of a queue must agree on it.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithPerm sets the permission bits used when the queue is created.
func WithPerm(perm os.FileMode) Option {
	return func(o *options) {
		o.perm = perm.Perm()
	}
}

// WithStrictPayload makes Send reject payloads longer than the capacity
// instead of truncating them.
func WithStrictPayload() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithMetrics records channel activity on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the tracer for send, receive and destroy spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMeter sets the meter for the operation counter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithLogger sets the channel logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
