// Package mq provides a typed, single-message rendezvous channel over a kernel message queue.
//
// A Channel is opened from a Key derived from a token path and a seed byte, carries
// fixed-capacity text messages tagged with a positive type, and is destroyed exactly once by the
// process that opened it. Processes that only send use Attach and never destroy.
//
// Two backends implement the host facility: SysV, the System V message queue of the running
// kernel, and Memory, an in-process stand-in with the same contract.
//
// Example usage:
//
//	key, err := mq.DeriveKey(mq.SysV(), "msg_queue_key", 'b')
//	// ...
//	ch, err := mq.OpenOrCreate(mq.SysV(), key)
//	// ...
//	msg, err := ch.Receive(ctx, mq.DefaultType)
//	// ...
//	err = ch.Destroy()
//
// Every failure is an *OpError whose kind is one of ErrKeyDerivation, ErrQueueUnavailable,
// ErrSend, ErrReceive, ErrEncoding or ErrDestroy.
package mq
