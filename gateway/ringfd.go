package gateway

import (
	"fmt"
	"os"
)

// fdHaver is implemented only by the Linux io_uring submitter; the
// fallback submitter has no underlying ring descriptor to share.
type fdHaver interface {
	FD() int
}

// publishRingFD writes the shared ring's file descriptor into the
// pipe whose write end was passed in at startup (spec.md §6), so the
// order-management sibling can submit against the same kernel-poll
// thread. Per the §4.1 edge-case policy, this is skipped entirely for
// a non-root process (which never gets SQ polling in the first place)
// and whenever no pipe was configured.
func (g *Gateway) publishRingFD() error {
	if g.cfg.PipeOutFD < 0 {
		return nil
	}
	fh, ok := g.submitter.(fdHaver)
	if !ok {
		return nil
	}
	if os.Geteuid() != 0 {
		return nil
	}

	fd := fh.FD()
	var buf [4]byte
	buf[0] = byte(fd)
	buf[1] = byte(fd >> 8)
	buf[2] = byte(fd >> 16)
	buf[3] = byte(fd >> 24)

	pipe := os.NewFile(uintptr(g.cfg.PipeOutFD), "ring-fd-pipe")
	if pipe == nil {
		return fmt.Errorf("gateway: invalid pipe fd %d", g.cfg.PipeOutFD)
	}
	n, err := pipe.Write(buf[:])
	if err != nil {
		return fmt.Errorf("gateway: write ring fd to pipe: %w", err)
	}
	if n != 4 {
		return fmt.Errorf("gateway: short write of ring fd to pipe: %d bytes", n)
	}
	return nil
}
