// Package asyncio submits and reaps asynchronous socket reads for the
// gateway's connection set. On Linux it drives io_uring directly so the
// read-submit and completion-reap steps never block the event loop's
// own thread; everywhere else it falls back to a non-blocking Recvmsg
// that still returns the same completion shape.
package asyncio

import (
	"errors"
	"fmt"
	"time"
)

// TransientReadError wraps a read failure the caller should log and
// retry on the connection's next readiness notification, rather than
// treat as fatal.
type TransientReadError struct {
	Err error
}

func (e *TransientReadError) Error() string {
	return fmt.Sprintf("asyncio: transient read error: %v", e.Err)
}

func (e *TransientReadError) Unwrap() error { return e.Err }

// ErrConnectionClosed is returned once a read observes the peer closed
// the connection (a zero-length read with no error). ECONNRESET and
// other read errors are reported as ordinary wrapped errors, not as
// ErrConnectionClosed. It is terminal: the caller should tear the
// connection down rather than retry.
var ErrConnectionClosed = errors.New("asyncio: connection closed")

// Completion describes one reaped read: how many bytes landed in the
// buffer that was registered for this slot, and the kernel-reported
// receive timestamp if SO_TIMESTAMP was enabled on the socket.
type Completion struct {
	ConnIdx  int
	N        int
	RxKernel time.Time
	Err      error
}

// Config parameterizes submitter construction across platforms. Not
// every field applies everywhere: SQPollCPU and SQThreadIdle are
// meaningful only to the Linux io_uring submitter.
type Config struct {
	// SQEntries sizes the io_uring submission queue (spec.md
	// --ring-entries); ignored by the fallback submitter.
	SQEntries int
	// SQPollCPU pins the kernel's SQ-poll thread to this CPU. -1
	// disables SQ polling, which is also forced when IsRoot is false
	// (spec.md §4.1 edge-case policy).
	SQPollCPU int
	// SQThreadIdle is how long the SQ-poll thread waits for new
	// submissions before parking.
	SQThreadIdle time.Duration
	// IsRoot reports the process's effective privilege; the caller
	// supplies it rather than this package calling os.Geteuid
	// directly, so tests can force either branch.
	IsRoot bool
}

// New constructs the platform-appropriate Submitter: io_uring on
// Linux, a polled non-blocking-Recvmsg fallback everywhere else.
func New(cfg Config) (Submitter, error) {
	return newPlatformSubmitter(cfg)
}

// Submitter issues asynchronous reads against registered connections
// and reaps their completions. Implementations are not safe for
// concurrent use from more than one goroutine — the gateway drives a
// Submitter entirely from its single pinned event-loop thread.
type Submitter interface {
	// Register associates a file descriptor and a destination buffer
	// with a connection slot. For implementations that support
	// fixed-file registration, connIdx is also the fixed-file index.
	Register(connIdx int, fd int, buf []byte) error

	// Unregister releases a previously registered slot.
	Unregister(connIdx int) error

	// Submit issues an asynchronous read for connIdx into its
	// registered buffer.
	Submit(connIdx int) error

	// Reap blocks up to timeout for at least one completion, invoking
	// fn once per completion reaped. A negative timeout blocks until
	// at least one completion is available.
	Reap(timeout time.Duration, fn func(Completion)) error

	// Close releases all resources held by the submitter.
	Close() error
}
