package mq

import (
	"context"
	"os"
)

// Key identifies a queue across processes; it is derived from a token path and a seed byte.
type Key int32

// Handle identifies a live queue.
type Handle int

// Backend is the host facility a Channel runs on.
//
// Send and Receive exchange exactly len(text) bytes of message text. Receive blocks until a
// message of type typ exists and returns how many bytes were written into text.
type Backend interface {
	Name() string
	DeriveKey(token string, seed byte) (Key, error)
	Open(key Key, perm os.FileMode) (Handle, error)
	Send(ctx context.Context, h Handle, typ int64, text []byte) error
	Receive(ctx context.Context, h Handle, typ int64, text []byte) (int, error)
	Remove(h Handle) error
}
