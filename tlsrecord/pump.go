// Package tlsrecord drives a crypto/tls.Conn as a pure record pump: the
// gateway feeds it ciphertext bytes read off the wire and drains
// plaintext bytes back out, without crypto/tls ever touching a real
// socket. This lets the gateway's own async read submitter own the
// actual I/O while still getting a standard TLS 1.2/1.3 implementation
// for the handshake and record layer.
package tlsrecord

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// TransientReadError wraps a read-path failure that does not necessarily
// mean the connection is dead — e.g. a ciphertext chunk Feed rejects as
// too large. (A partial record is not an error: Drain returns what it
// has and waits for the next Feed.) The gateway logs and continues
// rather than tearing the connection down.
type TransientReadError struct {
	Err error
}

func (e *TransientReadError) Error() string {
	return fmt.Sprintf("tlsrecord: transient read error: %v", e.Err)
}

func (e *TransientReadError) Unwrap() error { return e.Err }

// Pump wraps one TLS connection's worth of memory-backed record state.
type Pump struct {
	conn *memConn
	tls  *tls.Conn

	// maxChunk bounds a single Feed call; zero means unbounded. Set to
	// the connection's read buffer size so a chunk Feed cannot possibly
	// have received gets rejected rather than silently accepted.
	maxChunk int
}

// New creates a pump for the given server name, ready for its caller to
// drive the handshake by alternately calling Feed/Drain and
// TakeOutbound until Handshake succeeds. maxChunk bounds the size of any
// single Feed call; pass 0 for no bound.
func New(serverName string, cfg *tls.Config, maxChunk int) *Pump {
	mc := newMemConn()
	c := cfg.Clone()
	if c == nil {
		c = &tls.Config{}
	}
	if c.ServerName == "" {
		c.ServerName = serverName
	}
	return &Pump{
		conn:     mc,
		tls:      tls.Client(mc, c),
		maxChunk: maxChunk,
	}
}

// Feed appends ciphertext read off the real socket into the pump's
// input buffer. It never blocks and never allocates beyond growing the
// internal buffer. A chunk larger than maxChunk is rejected with a
// TransientReadError and not buffered at all, rather than partially fed.
func (p *Pump) Feed(ciphertext []byte) error {
	if p.maxChunk > 0 && len(ciphertext) > p.maxChunk {
		return &TransientReadError{Err: fmt.Errorf("ciphertext chunk of %d bytes exceeds %d-byte read buffer", len(ciphertext), p.maxChunk)}
	}
	p.conn.feed(ciphertext)
	return nil
}

// TakeOutbound returns ciphertext crypto/tls queued for the peer
// (handshake flights, alerts) so the caller can write it to the real
// socket.
func (p *Pump) TakeOutbound() []byte {
	return p.conn.takeOutbound()
}

// Handshake drives the TLS handshake using whatever ciphertext has
// already been fed. It returns (false, nil) if the handshake needs more
// ciphertext than is currently buffered.
func (p *Pump) Handshake() (done bool, err error) {
	err = p.tls.Handshake()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errNoMoreCiphertext) {
		return false, nil
	}
	return false, err
}

// WritePlaintext encrypts p as one or more TLS records and queues the
// resulting ciphertext for TakeOutbound, without ever touching a real
// socket. Used for the WebSocket upgrade request and subscribe frame,
// both sent once during connection setup.
func (p *Pump) WritePlaintext(plaintext []byte) error {
	_, err := p.tls.Write(plaintext)
	return err
}

// Drain decrypts as much plaintext as is available into buf, returning
// the number of bytes written. It returns (n, nil) once the currently
// buffered ciphertext has been exhausted — that is not an error, just
// "nothing more without another Feed." Any other read failure comes
// back wrapped in TransientReadError.
func (p *Pump) Drain(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := p.tls.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, errNoMoreCiphertext) {
				return total, nil
			}
			return total, &TransientReadError{Err: err}
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Close tears down the TLS session state. It does not touch any real
// socket; the caller is responsible for closing that separately.
func (p *Pump) Close() error {
	return p.tls.Close()
}

// ConnectionState exposes the negotiated TLS connection state, useful
// for logging cipher suite and protocol version at connect time.
func (p *Pump) ConnectionState() tls.ConnectionState {
	return p.tls.ConnectionState()
}
