package gateway

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"time"

	"mdgw/debug"
	"mdgw/tlsrecord"
	"mdgw/venue"
)

// handshakeTimeout bounds how long a single connection's dial+TLS+WS
// upgrade is allowed to take before bootstrap gives up on it.
const handshakeTimeout = 10 * time.Second

// connect drives one connection from Connecting through Ready: dial
// TCP, perform the TLS handshake with crypto/tls driven purely off
// bytes read from the socket (never letting it touch the socket
// directly — see tlsrecord doc comment), issue the WebSocket upgrade,
// and emit the venue's subscribe frame. Connection establishment is
// serial and not performance-critical (spec §4.1), so this function is
// free to use ordinary blocking net.Conn reads.
func (c *connection) connect(isMock bool) error {
	c.state = connConnecting

	raw, err := net.DialTimeout("tcp", c.venue.Endpoint(), handshakeTimeout)
	if err != nil {
		c.state = connFailed
		return fmt.Errorf("gateway: dial %s: %w", c.venue.Endpoint(), err)
	}
	raw.SetDeadline(time.Now().Add(handshakeTimeout))

	pump := tlsrecord.New(c.venue.Host(), tlsConfigFor(c.venue, isMock), len(c.ciphertextBuf))
	if err := pumpHandshake(raw, pump); err != nil {
		raw.Close()
		c.state = connFailed
		return fmt.Errorf("gateway: tls handshake with %s: %w", c.venue.Name(), err)
	}

	if err := pumpUpgrade(raw, pump, c.venue); err != nil {
		raw.Close()
		c.state = connFailed
		return fmt.Errorf("gateway: ws upgrade with %s: %w", c.venue.Name(), err)
	}

	c.raw = raw
	c.pump = pump
	c.state = connSubscribing

	frame, err := c.venue.SubscribeFrame(c.symbol)
	if err != nil {
		raw.Close()
		c.state = connFailed
		return fmt.Errorf("gateway: build subscribe frame: %w", err)
	}
	if len(frame) > 0 {
		if err := pump.WritePlaintext(frame); err != nil {
			raw.Close()
			c.state = connFailed
			return fmt.Errorf("gateway: send subscribe frame: %w", err)
		}
		if _, err := raw.Write(pump.TakeOutbound()); err != nil {
			raw.Close()
			c.state = connFailed
			return fmt.Errorf("gateway: write subscribe frame: %w", err)
		}
	}

	raw.SetDeadline(time.Time{})
	c.state = connReady
	debug.DropMessage("gateway", fmt.Sprintf("connection %d (%s/%s) ready", c.idx, c.venue.Name(), c.symbol))
	return nil
}

// pumpHandshake alternately feeds ciphertext read off raw into pump and
// writes pump's outbound flight back to raw, until the TLS handshake
// completes.
func pumpHandshake(raw net.Conn, pump *tlsrecord.Pump) error {
	buf := make([]byte, 16384)
	for {
		done, err := pump.Handshake()
		if err != nil {
			return err
		}
		if out := pump.TakeOutbound(); len(out) > 0 {
			if _, err := raw.Write(out); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
		n, err := raw.Read(buf)
		if n > 0 {
			if ferr := pump.Feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			return err
		}
	}
}

// pumpUpgrade sends the HTTP/1.1 WebSocket upgrade request as a
// plaintext TLS record and reads until a complete HTTP response header
// block (terminated by CRLFCRLF) has been decrypted, then validates the
// 101 Switching Protocols status line.
func pumpUpgrade(raw net.Conn, pump *tlsrecord.Pump, v venue.Venue) error {
	key := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		return err
	}
	secKey := base64.StdEncoding.EncodeToString(key)

	req := fmt.Sprintf(
		"GET %s HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Origin: https://%s\r\n"+
			"Sec-WebSocket-Key: %s\r\n"+
			"Sec-WebSocket-Version: 13\r\n\r\n",
		v.Path(), v.Host(), v.Host(), secKey)

	if err := pump.WritePlaintext([]byte(req)); err != nil {
		return err
	}
	if _, err := raw.Write(pump.TakeOutbound()); err != nil {
		return err
	}

	var resp bytes.Buffer
	readBuf := make([]byte, 4096)
	plainBuf := make([]byte, 4096)
	for {
		n, rerr := raw.Read(readBuf)
		if n > 0 {
			if ferr := pump.Feed(readBuf[:n]); ferr != nil {
				return ferr
			}
			for {
				pn, derr := pump.Drain(plainBuf)
				if pn > 0 {
					resp.Write(plainBuf[:pn])
				}
				if derr != nil {
					return derr
				}
				if pn == 0 {
					break
				}
			}
		}
		if idx := bytes.Index(resp.Bytes(), []byte("\r\n\r\n")); idx >= 0 {
			return validateUpgradeResponse(resp.Bytes()[:idx])
		}
		if rerr != nil {
			return rerr
		}
	}
}

func validateUpgradeResponse(header []byte) error {
	if !bytes.HasPrefix(header, []byte("HTTP/1.1 101")) && !bytes.HasPrefix(header, []byte("HTTP/1.0 101")) {
		line := header
		if i := bytes.IndexByte(header, '\r'); i >= 0 {
			line = header[:i]
		}
		return fmt.Errorf("gateway: websocket upgrade rejected: %s", line)
	}
	return nil
}
