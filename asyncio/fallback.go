//go:build !linux

package asyncio

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// newPlatformSubmitter is asyncio.New's non-Linux implementation. It
// has no io_uring to submit against, so it drives recvmsg directly:
// Submit marks a connection pending, Reap blocks on whichever pending
// connection is ready using a short poll loop. The Submitter interface
// is identical either way, so the gateway's read cycle does not know
// which implementation it is driving.
func newPlatformSubmitter(cfg Config) (Submitter, error) {
	return &fallbackSubmitter{slots: make(map[int]*fallbackSlot)}, nil
}

type fallbackSlot struct {
	fd      int
	buf     []byte
	pending bool
}

type fallbackSubmitter struct {
	mu    sync.Mutex
	slots map[int]*fallbackSlot
}

func (f *fallbackSubmitter) Register(connIdx int, fd int, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("asyncio: set nonblocking: %w", err)
	}
	f.slots[connIdx] = &fallbackSlot{fd: fd, buf: buf}
	return nil
}

func (f *fallbackSubmitter) Unregister(connIdx int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, connIdx)
	return nil
}

func (f *fallbackSubmitter) Submit(connIdx int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[connIdx]
	if !ok {
		return fmt.Errorf("asyncio: submit: connection %d not registered", connIdx)
	}
	s.pending = true
	return nil
}

// Reap polls every pending connection with a non-blocking recvmsg,
// sleeping briefly between sweeps, until at least one completion is
// found or timeout elapses. This trades the real platform's
// completion-queue wakeup for a busy poll, which is acceptable outside
// Linux since this path exists for portability and local testing, not
// production latency.
func (f *fallbackSubmitter) Reap(timeout time.Duration, fn func(Completion)) error {
	deadline := time.Now().Add(timeout)
	for {
		found := false
		f.mu.Lock()
		for connIdx, s := range f.slots {
			if !s.pending {
				continue
			}
			n, _, _, _, err := unix.Recvmsg(s.fd, s.buf, nil, 0)
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			s.pending = false
			found = true
			c := Completion{ConnIdx: connIdx}
			if err != nil {
				c.Err = fmt.Errorf("asyncio: recvmsg: %w", err)
			} else {
				c.N = n
				// No SCM_TIMESTAMP parsing on this path: SO_TIMESTAMP
				// is a Linux ancillary-data feature, so RxKernel here
				// is userspace receipt time, not the kernel's.
				c.RxKernel = time.Now()
				if n == 0 {
					c.Err = ErrConnectionClosed
				}
			}
			fn(c)
		}
		f.mu.Unlock()
		if found {
			return nil
		}
		if timeout >= 0 && time.Now().After(deadline) {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fallbackSubmitter) Close() error {
	return nil
}
