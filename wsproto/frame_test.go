package wsproto

import (
	"bytes"
	"testing"
)

func TestBuildTextFrameShortPayload(t *testing.T) {
	payload := []byte(`{"op":"subscribe"}`)
	key := [4]byte{0x12, 0x34, 0x56, 0x78}
	frame := BuildTextFrame(payload, key)

	if frame[0] != 0x81 {
		t.Fatalf("expected FIN+TEXT byte 0x81, got %#x", frame[0])
	}
	if frame[1]&0x80 == 0 {
		t.Fatalf("expected MASK bit set")
	}
	if int(frame[1]&0x7F) != len(payload) {
		t.Fatalf("expected length %d, got %d", len(payload), frame[1]&0x7F)
	}
	maskStart := 2
	unmasked := make([]byte, len(payload))
	for i := range payload {
		unmasked[i] = frame[maskStart+4+i] ^ frame[maskStart+(i&3)]
	}
	if !bytes.Equal(unmasked, payload) {
		t.Fatalf("unmasked payload mismatch: got %q want %q", unmasked, payload)
	}
}

func TestBuildTextFrameExtendedLength(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 200)
	frame := BuildTextFrame(payload, [4]byte{1, 2, 3, 4})
	if frame[1]&0x7F != 126 {
		t.Fatalf("expected extended-16 marker, got %d", frame[1]&0x7F)
	}
	gotLen := int(frame[2])<<8 | int(frame[3])
	if gotLen != len(payload) {
		t.Fatalf("expected encoded length %d, got %d", len(payload), gotLen)
	}
}

func TestDecoderSingleFrame(t *testing.T) {
	payload := []byte("hello")
	frame := []byte{0x81, byte(len(payload))}
	frame = append(frame, payload...)

	d := NewDecoder(1 << 16)
	var got []Message
	if err := d.Feed(frame, func(m Message) { got = append(got, m) }); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if !bytes.Equal(got[0].Payload, payload) {
		t.Fatalf("payload mismatch: got %q want %q", got[0].Payload, payload)
	}
	if got[0].Opcode != OpText {
		t.Fatalf("expected text opcode, got %d", got[0].Opcode)
	}
}

func TestDecoderSplitAcrossFeeds(t *testing.T) {
	payload := []byte("partial-frame-payload")
	frame := []byte{0x81, byte(len(payload))}
	frame = append(frame, payload...)

	d := NewDecoder(1 << 16)
	var got []Message
	collect := func(m Message) { got = append(got, m) }

	if err := d.Feed(frame[:3], collect); err != nil {
		t.Fatalf("feed part 1: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no message yet, got %d", len(got))
	}
	if err := d.Feed(frame[3:], collect); err != nil {
		t.Fatalf("feed part 2: %v", err)
	}
	if len(got) != 1 || !bytes.Equal(got[0].Payload, payload) {
		t.Fatalf("expected reassembled payload, got %+v", got)
	}
}

func TestDecoderMultipleFramesOneFeed(t *testing.T) {
	mk := func(p string) []byte {
		f := []byte{0x81, byte(len(p))}
		return append(f, []byte(p)...)
	}
	buf := append(mk("first"), mk("second")...)

	d := NewDecoder(1 << 16)
	var got []Message
	if err := d.Feed(buf, func(m Message) { got = append(got, m) }); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if string(got[0].Payload) != "first" || string(got[1].Payload) != "second" {
		t.Fatalf("unexpected payloads: %+v", got)
	}
}

func TestDecoderRejectsOversizedFrame(t *testing.T) {
	d := NewDecoder(10)
	header := []byte{0x81, 126, 0x00, 0x32} // declares a 50-byte payload
	err := d.Feed(header, func(Message) {})
	if err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestDecoderExtended64Length(t *testing.T) {
	payload := bytes.Repeat([]byte("y"), 70000)
	header := []byte{0x81, 127, 0, 0, 0, 0, 0, 1, 0x11, 0x70}
	buf := append(header, payload...)

	d := NewDecoder(1 << 20)
	var got []Message
	if err := d.Feed(buf, func(m Message) { got = append(got, m) }); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(got) != 1 || len(got[0].Payload) != len(payload) {
		t.Fatalf("unexpected result: %+v", got)
	}
}
