package mq

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/cenkalti/backoff/v4"
	"github.com/valyala/bytebufferpool"

	"github.com/srediag/plugin-mq/internal/sysv"
)

type sysvBackend struct{}

// SysV returns the backend for the kernel's System V message queues.
func SysV() Backend {
	return sysvBackend{}
}

func (sysvBackend) Name() string { return "sysv" }

func (sysvBackend) DeriveKey(token string, seed byte) (Key, error) {
	key, err := sysv.Ftok(token, seed)
	if err != nil {
		return 0, err
	}
	return Key(key), nil
}

func (sysvBackend) Open(key Key, perm os.FileMode) (Handle, error) {
	id, err := sysv.MsgGet(int32(key), sysv.FlagCreate|int(perm.Perm()))
	if err != nil {
		return 0, err
	}
	return Handle(id), nil
}

func (sysvBackend) Send(ctx context.Context, h Handle, typ int64, text []byte) error {
	buf := acquireMsgbuf(len(text))
	defer bytebufferpool.Put(buf)

	sysv.PutType(buf.B, typ)
	copy(buf.B[sysv.HeaderSize:], text)
	return restartInterrupted(ctx, func() error {
		return sysv.MsgSnd(int(h), buf.B, 0)
	})
}

func (sysvBackend) Receive(ctx context.Context, h Handle, typ int64, text []byte) (int, error) {
	buf := acquireMsgbuf(len(text))
	defer bytebufferpool.Put(buf)

	var n int
	err := restartInterrupted(ctx, func() (err error) {
		n, err = sysv.MsgRcv(int(h), buf.B, typ, 0)
		return err
	})
	if err != nil {
		return 0, err
	}
	return copy(text, buf.B[sysv.HeaderSize:sysv.HeaderSize+n]), nil
}

func (sysvBackend) Remove(h Handle) error {
	return sysv.MsgRemove(int(h))
}

// acquireMsgbuf returns a zeroed pooled buffer with room for the type header and textLen bytes.
func acquireMsgbuf(textLen int) *bytebufferpool.ByteBuffer {
	buf := bytebufferpool.Get()
	size := sysv.HeaderSize + textLen
	if cap(buf.B) < size {
		buf.B = make([]byte, size)
	} else {
		buf.B = buf.B[:size]
		clear(buf.B)
	}
	return buf
}

// restartInterrupted reissues op while the host reports EINTR. msgsnd and msgrcv are never
// restarted by the kernel, and the Go runtime's own signals interrupt them routinely.
func restartInterrupted(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.Is(err, syscall.EINTR) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(&backoff.ZeroBackOff{}, ctx))
}
