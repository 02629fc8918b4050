package mq

import (
	"errors"

	"github.com/srediag/plugin-mq/internal/sysv"
)

// Operation error kinds.
var (
	ErrKeyDerivation    = errors.New("key derivation failed")
	ErrQueueUnavailable = errors.New("queue unavailable")
	ErrSend             = errors.New("send failed")
	ErrReceive          = errors.New("receive failed")
	ErrEncoding         = errors.New("payload is not valid UTF-8")
	ErrDestroy          = errors.New("destroy failed")
)

// Causes reported inside an OpError.
var (
	ErrClosed          = errors.New("channel is not open")
	ErrNotOwner        = errors.New("channel is not owned by this process")
	ErrInvalidType     = errors.New("message type must be positive")
	ErrInvalidSeed     = errors.New("seed byte must be nonzero")
	ErrPayloadTooLarge = errors.New("payload exceeds message capacity")
	ErrNoQueue         = errors.New("no such queue")
	ErrUnsupported     = sysv.ErrUnsupported
)

// OpError describes a failed channel operation.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return "mq " + e.Op + ": " + e.Kind.Error()
	}
	return "mq " + e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}
