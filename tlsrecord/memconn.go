package tlsrecord

import (
	"bytes"
	"net"
	"time"
)

// noMoreCiphertextError is returned by memConn.Read when its input
// buffer has been fully drained. Pump.Drain and Pump.Handshake
// recognize it as "no more plaintext without more ciphertext," not a
// real I/O failure.
//
// It implements net.Error with Temporary() true. crypto/tls only
// latches a read error as permanent (poisoning every later Read on the
// same *tls.Conn) when the error is not a temporary net.Error; without
// this, feeding more ciphertext after a drain would be pointless since
// the connection would already consider itself dead.
type noMoreCiphertextError struct{}

func (noMoreCiphertextError) Error() string   { return "tlsrecord: no more ciphertext buffered" }
func (noMoreCiphertextError) Timeout() bool   { return false }
func (noMoreCiphertextError) Temporary() bool { return true }

var errNoMoreCiphertext error = noMoreCiphertextError{}

// memConn is a net.Conn backed by an in-memory byte buffer instead of a
// socket. It exists so crypto/tls.Conn can be driven entirely off
// ciphertext we feed it ourselves, the same role a memory BIO plays for
// OpenSSL: the TLS library owns handshake state and record framing, we
// own the actual I/O.
//
// memConn is not safe for concurrent use; the gateway feeds and drains
// it from a single thread, so no locking is needed.
type memConn struct {
	in  bytes.Buffer // ciphertext fed in, consumed by tls.Conn.Read
	out bytes.Buffer // ciphertext tls.Conn.Write produces, drained by the caller
}

func newMemConn() *memConn {
	return &memConn{}
}

func (c *memConn) feed(p []byte) {
	c.in.Write(p)
}

func (c *memConn) Read(p []byte) (int, error) {
	if c.in.Len() == 0 {
		return 0, errNoMoreCiphertext
	}
	return c.in.Read(p)
}

func (c *memConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// takeOutbound drains whatever ciphertext tls.Conn has queued to send
// (handshake flights, close_notify) so the gateway can write it to the
// real socket.
func (c *memConn) takeOutbound() []byte {
	if c.out.Len() == 0 {
		return nil
	}
	b := c.out.Bytes()
	cp := make([]byte, len(b))
	copy(cp, b)
	c.out.Reset()
	return cp
}

func (c *memConn) Close() error                       { return nil }
func (c *memConn) LocalAddr() net.Addr                 { return memAddr{} }
func (c *memConn) RemoteAddr() net.Addr                { return memAddr{} }
func (c *memConn) SetDeadline(t time.Time) error       { return nil }
func (c *memConn) SetReadDeadline(t time.Time) error   { return nil }
func (c *memConn) SetWriteDeadline(t time.Time) error  { return nil }

type memAddr struct{}

func (memAddr) Network() string { return "mem" }
func (memAddr) String() string  { return "mem" }
