//go:build linux

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

// initReadiness creates the level-triggered epoll instance the
// gateway's service loop waits on (spec.md §4.1, §5's "epoll-backed
// wait, level-triggered" suspension point — deliberately distinct from
// the io_uring completion wait in Reap).
func (g *Gateway) initReadiness() error {
	efd, err := syscall.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("gateway: epoll_create1: %w", err)
	}
	g.epfd = efd
	return nil
}

// armConnection extracts the raw socket descriptor from the connection
// established during handshake, enables SO_TIMESTAMP so every read
// carries a kernel-reported arrival time, registers it with the
// async-read submitter under its fixed-file slot index, and adds it to
// the epoll interest set.
func (g *Gateway) armConnection(c *connection) error {
	fd, err := connFD(c.raw)
	if err != nil {
		return fmt.Errorf("gateway: connection %d: %w", c.idx, err)
	}
	c.fd = fd

	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_TIMESTAMP, 1); err != nil {
		return fmt.Errorf("gateway: SO_TIMESTAMP: %w", err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("gateway: set nonblocking: %w", err)
	}

	if err := g.submitter.Register(c.idx, fd, c.ciphertextBuf); err != nil {
		return fmt.Errorf("gateway: register connection %d: %w", c.idx, err)
	}

	ev := syscall.EpollEvent{Events: syscall.EPOLLIN, Fd: int32(c.idx)}
	if err := syscall.EpollCtl(g.epfd, syscall.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("gateway: epoll_ctl add connection %d: %w", c.idx, err)
	}
	c.state = connReady
	return nil
}

// connFD pulls the integer file descriptor out of a standard-library
// net.Conn via its raw-conn escape hatch. Dialed TCP connections always
// satisfy syscall.Conn.
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
	var ctrlErr error
	err = raw.Control(func(p uintptr) {
		fd = int(p)
	})
	if err != nil {
		return -1, err
	}
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}

// Run enters the indefinite service loop: wait for readiness, submit
// one read per ready connection, reap its completion, and publish. It
// returns once Stop is observed, after draining any reads already in
// flight on the ring.
func (g *Gateway) Run() error {
	stopFlag, _ := control.Flags()
	events := make([]syscall.EpollEvent, len(g.connections))

	for *stopFlag == 0 {
		n, err := syscall.EpollWait(g.epfd, events, 100)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("gateway: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			connIdx := int(events[i].Fd)
			if connIdx < 0 || connIdx >= len(g.connections) {
				continue
			}
			g.runReadCycle(connIdx)
		}
	}

	control.Drain(func() bool {
		drained := false
		for _, c := range g.connections {
			if c.rs == readSubmitted {
				g.reapOne(c)
				drained = true
			}
		}
		return drained
	})
	return nil
}

// runReadCycle drives one connection through Idle → Submitted →
// Decrypting → Publishing → Idle (spec.md §4.7). The watcher is
// level-triggered and this submits exactly one read per fire, so there
// is never more than one read in flight per connection.
func (g *Gateway) runReadCycle(connIdx int) {
	c := g.connections[connIdx]
	if c.state != connReady || c.rs != readIdle {
		return
	}

	c.pendingPollWake = tstamp.Now()
	if err := g.submitter.Submit(connIdx); err != nil {
		debug.DropError("gateway: submit", err)
		return
	}
	c.rs = readSubmitted

	g.reapOne(c)
}

// reapOne waits for at least one completion on the ring (the io_uring
// submitter does not bound this wait by the timeout it is given) and
// publishes each one reaped. A reaped completion for a
// connection other than c (possible once more than one read is
// in-flight, e.g. during shutdown drain) is published too rather than
// dropped.
func (g *Gateway) reapOne(c *connection) {
	if c.rs != readSubmitted {
		return
	}
	err := g.submitter.Reap(50*time.Millisecond, func(comp asyncio.Completion) {
		target := c
		if comp.ConnIdx != c.idx {
			target = g.connections[comp.ConnIdx]
		}
		g.finishReadCycle(target, comp)
	})
	if err != nil {
		debug.DropError("gateway: reap", err)
	}
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
		c.rs = readIdle
		return
	}

	c.rs = readPublishing
	g.publish(c, comp.N, quad)
	c.rs = readIdle
}
