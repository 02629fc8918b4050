package mq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTextPadsWithNUL(t *testing.T) {
	text := []byte("xxxxxxxxxx")
	dropped := encodeText(text, "abc")
	assert.Equal(t, 0, dropped)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0, 0, 0}, text)
}

func TestEncodeTextTruncates(t *testing.T) {
	text := make([]byte, 4)
	dropped := encodeText(text, "abcdefg")
	assert.Equal(t, 3, dropped)
	assert.Equal(t, "abcd", string(text))
}

func TestDecodeText(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"padded", []byte("hello\x00\x00\x00"), "hello"},
		{"full", []byte("hello"), "hello"},
		{"embedded nul", []byte("he\x00llo"), "he"},
		{"empty", []byte{0, 0}, ""},
		{"multibyte", []byte("héllo ✓\x00"), "héllo ✓"},
		{"replacement char", []byte("�\x00"), "�"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeText(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeTextRejectsInvalidUTF8(t *testing.T) {
	_, err := decodeText([]byte{'o', 'k', 0xff, 'x', 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 2")

	// a multibyte rune cut by truncation is invalid too
	text := make([]byte, 4)
	encodeText(text, "abc✓")
	_, err = decodeText(text)
	assert.Error(t, err)
}

func TestDecodeIgnoresBytesAfterNUL(t *testing.T) {
	got, err := decodeText(append([]byte("ok\x00"), 0xff, 0xfe))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.False(t, strings.ContainsRune(got, 0))
}
