//go:build !linux

package gateway

import (
	"fmt"
	"net"
	"syscall"
	"time"

	"mdgw/asyncio"
	"mdgw/control"
	"mdgw/debug"
	"mdgw/tstamp"
)

// initReadiness is a no-op on platforms without epoll: the fallback
// submitter polls each registered connection directly instead of
// waiting on a shared readiness descriptor.
func (g *Gateway) initReadiness() error {
	return nil
}

// armConnection registers the connection's descriptor with the
// fallback submitter. There is no interest set to join outside Linux;
// readiness is discovered by polling Reap.
func (g *Gateway) armConnection(c *connection) error {
	fd, err := connFD(c.raw)
	if err != nil {
		return fmt.Errorf("gateway: connection %d: %w", c.idx, err)
	}
	c.fd = fd
	if err := g.submitter.Register(c.idx, fd, c.ciphertextBuf); err != nil {
		return fmt.Errorf("gateway: register connection %d: %w", c.idx, err)
	}
	c.state = connReady
	return nil
}

// connFD pulls the integer file descriptor out of a standard-library
// net.Conn via its raw-conn escape hatch.
func connFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("connection does not expose a raw fd")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	err = raw.Control(func(p uintptr) {
		fd = int(p)
	})
	if err != nil {
		return -1, err
	}
	return fd, nil
}

const pollInterval = 2 * time.Millisecond

// Run polls every connection in round-robin order, submitting a read
// wherever none is already in flight and reaping whatever has
// completed. This loop never achieves the io_uring path's latency
// characteristics; it exists so the gateway runs (functionally, not
// competitively) on development machines that aren't Linux.
func (g *Gateway) Run() error {
	stopFlag, _ := control.Flags()

	for *stopFlag == 0 {
		progressed := false
		for _, c := range g.connections {
			if c.state != connReady {
				continue
			}
			if c.rs == readIdle {
				c.pendingPollWake = tstamp.Now()
				if err := g.submitter.Submit(c.idx); err != nil {
					debug.DropError("gateway: submit", err)
					continue
				}
				c.rs = readSubmitted
			}
		}

		err := g.submitter.Reap(pollInterval, func(comp asyncio.Completion) {
			progressed = true
			if comp.ConnIdx < 0 || comp.ConnIdx >= len(g.connections) {
				return
			}
			g.finishReadCycle(g.connections[comp.ConnIdx], comp)
		})
		if err != nil {
			debug.DropError("gateway: reap", err)
		}
		if !progressed {
			time.Sleep(pollInterval)
		}
	}

	control.Drain(func() bool {
		drained := false
		_ = g.submitter.Reap(pollInterval, func(comp asyncio.Completion) {
			if comp.ConnIdx < 0 || comp.ConnIdx >= len(g.connections) {
				return
			}
			g.finishReadCycle(g.connections[comp.ConnIdx], comp)
			drained = true
		})
		return drained
	})
	return nil
}

func (g *Gateway) finishReadCycle(c *connection, comp asyncio.Completion) {
	c.rs = readDecrypting
	quad := tstamp.Quad{
		RxKernel:     comp.RxKernel,
		PollWake:     c.pendingPollWake,
		ReadComplete: tstamp.Now(),
	}

	if comp.Err != nil {
		c.rs = readIdle
		if comp.Err == asyncio.ErrConnectionClosed {
			c.state = connClosed
			debug.DropMessage("gateway", fmt.Sprintf("connection %d (%s) closed", c.idx, c.symbol))
			return
		}
		debug.DropError(fmt.Sprintf("gateway: connection %d transient read error", c.idx), comp.Err)
		return
	}

	c.rs = readPublishing
	g.publish(c, comp.N, quad)
	c.rs = readIdle
}
