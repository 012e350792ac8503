package queue

import (
	"bytes"
	"testing"
	"time"

	"mdgw/tstamp"
)

func TestEntryMarshalUnmarshalRoundTrip(t *testing.T) {
	var e Entry
	e.ConnIdx = 7
	e.Len = copy(e.Payload[:], []byte("orderBookL2_25:XBTUSD"))
	e.Quad = tstamp.Quad{
		RxKernel:        time.Unix(1700000000, 123000),
		PollWake:        time.Unix(1700000000, 456000),
		ReadComplete:    time.Unix(1700000000, 789000),
		DecryptComplete: time.Unix(1700000001, 0),
	}

	data, err := e.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got Entry
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if got.ConnIdx != e.ConnIdx {
		t.Fatalf("ConnIdx: got %d, want %d", got.ConnIdx, e.ConnIdx)
	}
	if !bytes.Equal(got.Bytes(), e.Bytes()) {
		t.Fatalf("payload: got %q, want %q", got.Bytes(), e.Bytes())
	}
	for i, pair := range [][2]time.Time{
		{got.Quad.RxKernel, e.Quad.RxKernel},
		{got.Quad.PollWake, e.Quad.PollWake},
		{got.Quad.ReadComplete, e.Quad.ReadComplete},
		{got.Quad.DecryptComplete, e.Quad.DecryptComplete},
	} {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("timestamp %d: got %v, want %v", i, pair[0], pair[1])
		}
	}
}

func TestEntryUnmarshalRejectsTruncatedRecord(t *testing.T) {
	var e Entry
	if err := e.UnmarshalBinary([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected truncated record to be rejected")
	}
}

func TestEntryUnmarshalRejectsLengthMismatch(t *testing.T) {
	var e Entry
	e.Len = copy(e.Payload[:], []byte("hello"))
	data, err := e.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if err := e.UnmarshalBinary(data[:len(data)-1]); err == nil {
		t.Fatalf("expected truncated payload to be rejected")
	}
}
