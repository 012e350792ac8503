// Package wsproto implements just enough of RFC 6455 to drive a client
// WebSocket connection against a venue feed: masked text frames out,
// an incremental decoder for whatever the TLS record pump drains in.
// It never touches a net.Conn directly — frames are built into byte
// slices and parsed out of byte slices the caller already has in hand.
package wsproto

import (
	"encoding/binary"
	"errors"
)

// Opcodes, per RFC 6455 §5.2.
const (
	OpContinuation = 0x0
	OpText         = 0x1
	OpBinary       = 0x2
	OpClose        = 0x8
	OpPing         = 0x9
	OpPong         = 0xA
)

// ErrFrameTooLarge is returned by the Decoder when a frame declares a
// payload length larger than the decoder's configured maximum.
var ErrFrameTooLarge = errors.New("wsproto: frame exceeds maximum payload size")

// BuildTextFrame masks payload as RFC 6455 requires of client frames
// and returns a single complete text frame ready to write to the wire.
// maskKey must be 4 bytes; venues cannot distinguish a well-formed mask
// from a predictable one, so callers are free to use a fixed key.
func BuildTextFrame(payload []byte, maskKey [4]byte) []byte {
	return buildFrame(OpText, payload, maskKey)
}

func buildFrame(opcode byte, payload []byte, maskKey [4]byte) []byte {
	n := len(payload)
	var header []byte
	switch {
	case n <= 125:
		header = []byte{0x80 | opcode, 0x80 | byte(n)}
	case n <= 0xFFFF:
		header = make([]byte, 4)
		header[0] = 0x80 | opcode
		header[1] = 0x80 | 126
		binary.BigEndian.PutUint16(header[2:], uint16(n))
	default:
		header = make([]byte, 10)
		header[0] = 0x80 | opcode
		header[1] = 0x80 | 127
		binary.BigEndian.PutUint64(header[2:], uint64(n))
	}

	out := make([]byte, len(header)+4+n)
	copy(out, header)
	copy(out[len(header):], maskKey[:])
	masked := out[len(header)+4:]
	for i := 0; i < n; i++ {
		masked[i] = payload[i] ^ maskKey[i&3]
	}
	return out
}
