// Package api defines public API contracts for plugin-mq.
package api

import "context"

// QueueChannel is one end of a typed message queue.
type QueueChannel interface {
	Send(ctx context.Context, typ int64, payload string) error
	Receive(ctx context.Context, typ int64) (string, error)
	Destroy() error
}
