//go:build !linux || !(amd64 || arm64)

package sysv

// Ftok is not available on this platform.
func Ftok(path string, id byte) (int32, error) {
	return -1, ErrUnsupported
}

// MsgGet is not available on this platform.
func MsgGet(key int32, flags int) (int, error) {
	return -1, ErrUnsupported
}

// MsgSnd is not available on this platform.
func MsgSnd(id int, buf []byte, flags int) error {
	return ErrUnsupported
}

// MsgRcv is not available on this platform.
func MsgRcv(id int, buf []byte, typ int64, flags int) (int, error) {
	return 0, ErrUnsupported
}

// MsgRemove is not available on this platform.
func MsgRemove(id int) error {
	return ErrUnsupported
}
