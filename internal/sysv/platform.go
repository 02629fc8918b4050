// Package sysv contains host-specific helpers for System V message queues.
package sysv

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

// HeaderSize is the size of the `long mtype` field that prefixes every msgbuf.
const HeaderSize = int(unsafe.Sizeof(int(0)))

// Flags accepted by MsgGet, MsgSnd and MsgRcv.
const (
	FlagCreate = 0o1000
	FlagNoWait = 0o4000
)

var (
	// ErrUnsupported is returned on platforms without System V message queue syscalls.
	ErrUnsupported = fmt.Errorf("sysv: message queues unavailable on %s/%s: %w",
		runtime.GOOS, runtime.GOARCH, errors.ErrUnsupported)
	// ErrZeroID is returned by Ftok when the project id is zero.
	ErrZeroID = errors.New("sysv: ftok project id must be nonzero")
)

// PutType stores typ in the msgbuf header.
func PutType(buf []byte, typ int64) {
	*(*int)(unsafe.Pointer(&buf[0])) = int(typ)
}

// Type reads the message type from the msgbuf header.
func Type(buf []byte) int64 {
	return int64(*(*int)(unsafe.Pointer(&buf[0])))
}

func checkBuffer(buf []byte) error {
	if len(buf) <= HeaderSize {
		return fmt.Errorf("sysv: msgbuf of %d bytes has no room for text", len(buf))
	}
	return nil
}
