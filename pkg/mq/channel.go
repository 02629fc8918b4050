package mq

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/plugin-mq/api"
)

// State is the lifecycle position of a Channel.
type State int32

const (
	StateUnopened State = iota
	StateOpen
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Operation names used in errors, spans and metrics.
const (
	OpDeriveKey = "derive-key"
	OpOpen      = "open"
	OpSend      = "send"
	OpReceive   = "receive"
	OpDestroy   = "destroy"
)

// Channel is one end of a queue. It is safe for concurrent use; Destroy wakes blocked
// receivers on backends that support it.
type Channel struct {
	backend Backend
	key     Key
	handle  Handle
	owner   bool
	state   atomic.Int32
	opts    options
	ops     metric.Int64Counter
}

// DeriveKey resolves token and seed to a queue key. The token must name an existing path.
func DeriveKey(b Backend, token string, seed byte) (Key, error) {
	if seed == 0 {
		return 0, opError(OpDeriveKey, ErrKeyDerivation, ErrInvalidSeed)
	}
	key, err := b.DeriveKey(token, seed)
	if err != nil {
		return 0, opError(OpDeriveKey, ErrKeyDerivation, err)
	}
	return key, nil
}

// OpenOrCreate attaches to the queue for key, creating it when missing.
// The returned Channel owns the queue and must be destroyed by the caller.
func OpenOrCreate(b Backend, key Key, opts ...Option) (*Channel, error) {
	c := newChannel(b, opts)
	h, err := b.Open(key, c.opts.perm)
	if err != nil {
		c.opts.metrics.Errors.WithLabelValues(OpOpen).Inc()
		return nil, opError(OpOpen, ErrQueueUnavailable, err)
	}
	c.key = key
	c.handle = h
	c.owner = true
	c.state.Store(int32(StateOpen))
	c.opts.logger.Infow("queue opened", "backend", b.Name(), "key", int32(key), "handle", int(h))
	return c, nil
}

// Attach wraps a handle opened by another process. The channel can send and receive
// but never destroys the queue.
func Attach(b Backend, h Handle, opts ...Option) *Channel {
	c := newChannel(b, opts)
	c.handle = h
	c.state.Store(int32(StateOpen))
	c.opts.logger.Debugf("attached to %s queue handle %d", b.Name(), h)
	return c
}

func newChannel(b Backend, opts []Option) *Channel {
	c := &Channel{backend: b, opts: buildOptions(opts)}
	ops, err := c.opts.meter.Int64Counter("mq.operations",
		metric.WithDescription("Channel operations by name and outcome."))
	if err != nil {
		c.opts.logger.Warnf("mq.operations counter unavailable: %v", err)
		ops = metricnoop.Int64Counter{}
	}
	c.ops = ops
	return c
}

// Key is zero for attached channels.
func (c *Channel) Key() Key { return c.key }

// Handle identifies the queue to other processes.
func (c *Channel) Handle() Handle { return c.handle }

// State is the current lifecycle position.
func (c *Channel) State() State { return State(c.state.Load()) }

// Capacity is the size in bytes of the message text buffer.
func (c *Channel) Capacity() int { return c.opts.capacity }

// Owner reports whether this channel created or opened the queue and may destroy it.
func (c *Channel) Owner() bool { return c.owner }

// Send enqueues payload as a message of type typ. It blocks only while the queue is full.
// Payload bytes beyond the capacity are dropped unless WithStrictPayload was given.
func (c *Channel) Send(ctx context.Context, typ int64, payload string) (err error) {
	ctx, span := c.startSpan(ctx, OpSend, typ)
	defer func() { err = c.finish(ctx, span, OpSend, err) }()

	if st := c.State(); st != StateOpen {
		return opError(OpSend, ErrSend, fmt.Errorf("%w: %s", ErrClosed, st))
	}
	if typ <= 0 {
		return opError(OpSend, ErrSend, ErrInvalidType)
	}
	if c.opts.strict && len(payload) > c.opts.capacity {
		return opError(OpSend, ErrSend, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), c.opts.capacity))
	}

	text := make([]byte, c.opts.capacity)
	if dropped := encodeText(text, payload); dropped > 0 {
		c.opts.metrics.Truncated.Inc()
		c.opts.logger.Warnf("payload of %d bytes truncated to %d", len(payload), c.opts.capacity)
		span.SetAttributes(attribute.Int("mq.truncated_bytes", dropped))
	}
	if err := c.backend.Send(ctx, c.handle, typ, text); err != nil {
		return opError(OpSend, ErrSend, err)
	}
	c.opts.metrics.Sent.Inc()
	c.opts.metrics.BytesSent.Add(float64(min(len(payload), c.opts.capacity)))
	c.opts.logger.Debugf("sent type %d on handle %d", typ, c.handle)
	return nil
}

// Receive blocks until a message of type typ is enqueued and returns its text up to the
// first NUL byte. It never times out; ctx is only consulted when the host wait is interrupted.
func (c *Channel) Receive(ctx context.Context, typ int64) (msg string, err error) {
	ctx, span := c.startSpan(ctx, OpReceive, typ)
	defer func() { err = c.finish(ctx, span, OpReceive, err) }()

	if st := c.State(); st != StateOpen {
		return "", opError(OpReceive, ErrReceive, fmt.Errorf("%w: %s", ErrClosed, st))
	}
	if typ <= 0 {
		return "", opError(OpReceive, ErrReceive, ErrInvalidType)
	}

	text := make([]byte, c.opts.capacity)
	n, err := c.backend.Receive(ctx, c.handle, typ, text)
	if err != nil {
		return "", opError(OpReceive, ErrReceive, err)
	}
	msg, err = decodeText(text[:n])
	if err != nil {
		return "", opError(OpReceive, ErrEncoding, err)
	}
	c.opts.metrics.Received.Inc()
	c.opts.metrics.BytesReceived.Add(float64(len(msg)))
	c.opts.logger.Debugf("received type %d on handle %d", typ, c.handle)
	return msg, nil
}

// Destroy removes the queue. It must be called exactly once, by the owner; a second call fails.
func (c *Channel) Destroy() (err error) {
	ctx, span := c.startSpan(context.Background(), OpDestroy, 0)
	defer func() { err = c.finish(ctx, span, OpDestroy, err) }()

	if !c.owner {
		return opError(OpDestroy, ErrDestroy, ErrNotOwner)
	}
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateDestroyed)) {
		return opError(OpDestroy, ErrDestroy, fmt.Errorf("%w: %s", ErrClosed, c.State()))
	}
	if err := c.backend.Remove(c.handle); err != nil {
		return opError(OpDestroy, ErrDestroy, err)
	}
	c.opts.logger.Infow("queue destroyed", "backend", c.backend.Name(), "handle", int(c.handle))
	return nil
}

func (c *Channel) startSpan(ctx context.Context, op string, typ int64) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("mq.backend", c.backend.Name()),
		attribute.Int("mq.handle", int(c.handle)),
	}
	if typ != 0 {
		attrs = append(attrs, attribute.Int64("mq.type", typ))
	}
	return c.opts.tracer.Start(ctx, "mq."+op, trace.WithAttributes(attrs...))
}

func (c *Channel) finish(ctx context.Context, span trace.Span, op string, err error) error {
	c.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	))
	if err != nil {
		c.opts.metrics.Errors.WithLabelValues(op).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

// Ready reports ErrClosed unless the channel is open.
func (c *Channel) Ready() error {
	if st := c.State(); st != StateOpen {
		return fmt.Errorf("%w: %s", ErrClosed, st)
	}
	return nil
}

var (
	_ api.QueueChannel = (*Channel)(nil)
	_ api.Probe        = (*Channel)(nil)
)
