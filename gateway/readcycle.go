package gateway

import (
	"time"

	"mdgw/control"
	"mdgw/debug"
	"mdgw/queue"
	"mdgw/tstamp"
	"mdgw/wsproto"
)

// publish feeds one completed read's ciphertext through the TLS record
// pump and the WebSocket decoder, and pushes a queue.Entry for every
// application message the decoder assembles. It is the shared tail of
// the read cycle (Decrypting → Publishing) for both the io_uring and
// fallback loops, so platform-specific code only has to get ciphertext
// bytes into connection.ciphertextBuf and call this.
func (g *Gateway) publish(c *connection, n int, quad tstamp.Quad) {
	if n == 0 {
		c.state = connClosed
		debug.DropMessage("gateway", "connection closed by peer")
		return
	}

	if err := c.pump.Feed(c.ciphertextBuf[:n]); err != nil {
		debug.DropError("gateway: tls decrypt", err)
		return
	}
	plen, err := c.pump.Drain(c.plaintextBuf)
	if err != nil {
		debug.DropError("gateway: tls decrypt", err)
		return
	}
	quad.DecryptComplete = tstamp.Now()
	if plen == 0 {
		return
	}

	err = c.decoder.Feed(c.plaintextBuf[:plen], func(msg wsproto.Message) {
		if msg.Opcode != wsproto.OpText && msg.Opcode != wsproto.OpBinary {
			return
		}
		g.enqueue(c, msg.Payload, quad)
	})
	if err != nil {
		debug.DropError("gateway: ws decode", err)
	}
}

// enqueue builds a queue.Entry from a decoded application message and
// pushes it with the bounded retry policy spec.md §7 calls for
// (QueueFull is logged with a drop counter, not spun on forever).
func (g *Gateway) enqueue(c *connection, payload []byte, quad tstamp.Quad) {
	if len(payload) == 0 || len(payload) > queue.MaxPayload {
		return
	}
	var e queue.Entry
	e.ConnIdx = c.idx
	e.Len = copy(e.Payload[:], payload)
	e.Quad = quad

	for i := 0; i < g.cfg.PushRetries; i++ {
		if g.q.Push(e) {
			c.packets.Add(1)
			c.bytes.Add(uint64(e.Len))
			return
		}
		if i == 0 {
			control.SignalActivity()
		}
	}
	g.dropped.Add(1)
	debug.DropMessage("gateway", "queue full, dropped entry for connection")
}
