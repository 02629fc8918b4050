//go:build linux && (amd64 || arm64)

package sysv

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Ftok derives a System V IPC key from an existing path and a project id (Linux implementation).
// The key matches glibc's ftok(3) for the same inode and device.
func Ftok(path string, id byte) (int32, error) {
	if id == 0 {
		return -1, ErrZeroID
	}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return -1, fmt.Errorf("stat %s: %w", path, err)
	}
	key := uint32(st.Ino&0xffff) | uint32(st.Dev&0xff)<<16 | uint32(id)<<24
	return int32(key), nil
}

// MsgGet creates or attaches to the queue for key.
func MsgGet(key int32, flags int) (int, error) {
	id, _, errno := unix.Syscall(unix.SYS_MSGGET, uintptr(key), uintptr(flags), 0)
	if errno != 0 {
		return -1, fmt.Errorf("msgget: %w", errno)
	}
	return int(id), nil
}

// MsgSnd enqueues buf, a msgbuf whose header was filled by PutType.
func MsgSnd(id int, buf []byte, flags int) error {
	if err := checkBuffer(buf); err != nil {
		return err
	}
	_, _, errno := unix.Syscall6(unix.SYS_MSGSND, uintptr(id), uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)-HeaderSize), uintptr(flags), 0, 0)
	if errno != 0 {
		return fmt.Errorf("msgsnd: %w", errno)
	}
	return nil
}

// MsgRcv dequeues the first message of type typ into buf and returns the text length.
func MsgRcv(id int, buf []byte, typ int64, flags int) (int, error) {
	if err := checkBuffer(buf); err != nil {
		return 0, err
	}
	n, _, errno := unix.Syscall6(unix.SYS_MSGRCV, uintptr(id), uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)-HeaderSize), uintptr(typ), uintptr(flags), 0)
	if errno != 0 {
		return 0, fmt.Errorf("msgrcv: %w", errno)
	}
	return int(n), nil
}

// MsgRemove destroys the queue, waking blocked senders and receivers with EIDRM.
func MsgRemove(id int) error {
	_, _, errno := unix.Syscall(unix.SYS_MSGCTL, uintptr(id), unix.IPC_RMID, 0)
	if errno != 0 {
		return fmt.Errorf("msgctl: %w", errno)
	}
	return nil
}
