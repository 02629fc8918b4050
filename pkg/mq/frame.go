package mq

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// encodeText copies payload into text and NUL-pads the rest.
// It returns the number of payload bytes that did not fit.
func encodeText(text []byte, payload string) int {
	n := copy(text, payload)
	clear(text[n:])
	return len(payload) - n
}

// decodeText returns the bytes before the first NUL as a string.
func decodeText(text []byte) (string, error) {
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	for off := 0; off < len(text); {
		r, size := utf8.DecodeRune(text[off:])
		if r == utf8.RuneError && size <= 1 {
			return "", fmt.Errorf("invalid byte %#x at offset %d", text[off], off)
		}
		off += size
	}
	return string(text), nil
}
