package queue

import (
	"encoding/binary"
	"fmt"
	"time"

	"mdgw/tstamp"
)

// MaxPayload bounds a single market update's decrypted frame payload.
// It mirrors the venue read buffer size so an Entry never needs a
// heap-allocated slice.
const MaxPayload = 16384

// Entry is what the gateway's producer side hands to the downstream
// consumer: a fixed-size byte array plus its used length and the four
// timestamps captured along the way. No pointers or slices are
// embedded so a Ring[Entry] copies entries by value with no
// indirection and no aliasing between producer and consumer.
type Entry struct {
	Payload [MaxPayload]byte
	Len     int
	Quad    tstamp.Quad
	// ConnIdx identifies which connection produced this entry, so the
	// consumer can attribute it to a venue/symbol without a lookup.
	ConnIdx int
}

// Bytes returns the entry's used payload.
func (e *Entry) Bytes() []byte {
	return e.Payload[:e.Len]
}

// wireHeaderSize is the fixed portion of MarshalBinary's output: a
// uint32 payload length, four int64 nanosecond-since-epoch timestamps,
// and a uint32 connection index.
const wireHeaderSize = 4 + 8*4 + 4

// MarshalBinary encodes e as a portable wire record, the four
// timestamps written as nanoseconds since the UNIX epoch rather than
// time.Time's internal representation, so a consumer need not be a Go
// process sharing this gateway's memory to decode what was enqueued.
func (e *Entry) MarshalBinary() ([]byte, error) {
	if e.Len < 0 || e.Len > MaxPayload {
		return nil, fmt.Errorf("queue: entry length %d out of range", e.Len)
	}
	buf := make([]byte, wireHeaderSize+e.Len)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(e.Len))
	off := 4
	for _, ts := range [4]time.Time{
		e.Quad.RxKernel, e.Quad.PollWake, e.Quad.ReadComplete, e.Quad.DecryptComplete,
	} {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(ts.UnixNano()))
		off += 8
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(e.ConnIdx))
	off += 4
	copy(buf[off:], e.Payload[:e.Len])
	return buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary, replacing
// e's contents. Timestamps come back as time.Unix(0, ns) — equal to the
// original instant but no longer carrying the monotonic reading time.Now
// attaches, so post-unmarshal latency math must use wall-clock
// subtraction, not the monotonic fast path.
func (e *Entry) UnmarshalBinary(data []byte) error {
	if len(data) < wireHeaderSize {
		return fmt.Errorf("queue: entry header truncated: %d bytes", len(data))
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	if n < 0 || n > MaxPayload || len(data) != wireHeaderSize+n {
		return fmt.Errorf("queue: malformed entry: payload length %d, record %d bytes", n, len(data))
	}
	off := 4
	stamps := [4]*time.Time{&e.Quad.RxKernel, &e.Quad.PollWake, &e.Quad.ReadComplete, &e.Quad.DecryptComplete}
	for _, ts := range stamps {
		ns := int64(binary.LittleEndian.Uint64(data[off : off+8]))
		*ts = time.Unix(0, ns)
		off += 8
	}
	e.ConnIdx = int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	e.Len = copy(e.Payload[:], data[off:])
	return nil
}
