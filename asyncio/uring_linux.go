//go:build linux

package asyncio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"mdgw/tstamp"
)

// io_uring setup/enter/register syscall numbers, x86_64/arm64 generic
// ABI. golang.org/x/sys/unix does not wrap these directly, so they're
// issued with unix.Syscall the same way raw socket options are
// elsewhere in this package.
const (
	sysIoUringSetup    = 425
	sysIoUringEnter    = 426
	sysIoUringRegister = 427

	ioringSetupSqpoll = 1 << 1
	ioringSetupSqAff  = 1 << 2

	ioringOpRecvmsg = 34

	ioringEnterGetevents = 1

	ioringRegisterFiles = 2

	iosqeFixedFile = 1 << 0
)

// ioUringParams mirrors struct io_uring_params from the kernel ABI.
type ioUringParams struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        ioSqringOffsets
	CQOff        ioCqringOffsets
}

type ioSqringOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

type ioCqringOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	Resv2       uint64
}

// ioUringSQE mirrors the fixed 64-byte struct io_uring_sqe layout used
// for a RECVMSG submission.
type ioUringSQE struct {
	Opcode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	MsgFlags    uint32
	UserData    uint64
	BufIG       uint16
	Personality uint16
	SpliceFdIn  int32
	Pad2        [2]uint64
}

// ioUringCQE mirrors struct io_uring_cqe.
type ioUringCQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

type slot struct {
	fd   int
	buf  []byte
	mh   unix.Msghdr
	iov  unix.Iovec
	ctrl [unix.CmsgSpace(16)]byte
}

// uringSubmitter drives a single io_uring instance shared across every
// registered connection. SQ-poll is enabled when NewLinux is given a
// CPU; Submit still calls io_uring_enter after every submission either
// way, so a submission always costs one syscall.
type uringSubmitter struct {
	mu sync.Mutex

	fd int

	sqMmap  []byte
	cqMmap  []byte
	sqeMmap []byte

	sqHead *uint32
	sqTail *uint32
	sqMask uint32
	sqArr  []uint32
	sqes   []ioUringSQE

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   []ioUringCQE

	slots map[int]*slot
}

// newPlatformSubmitter is asyncio.New's Linux implementation: an
// io_uring instance with the given submission queue depth. SQ polling
// is enabled only when the caller both requested a CPU (SQPollCPU >=
// 0) and is root — an unprivileged process silently falls back to a
// plain ring per spec.md §4.1's edge-case policy.
func newPlatformSubmitter(cfg Config) (Submitter, error) {
	sqPollCPU := cfg.SQPollCPU
	if !cfg.IsRoot {
		sqPollCPU = -1
	}
	return NewLinux(cfg.SQEntries, sqPollCPU, cfg.SQThreadIdle)
}

// NewLinux sets up an io_uring instance with the given submission queue
// depth. When sqPollCPU is >= 0, the kernel's SQ-poll thread is pinned
// to that CPU with the given idle timeout before it parks, mirroring
// the original system's IORING_SETUP_SQPOLL|IORING_SETUP_SQ_AFF
// configuration.
func NewLinux(sqEntries int, sqPollCPU int, sqThreadIdle time.Duration) (*uringSubmitter, error) {
	params := ioUringParams{SQEntries: uint32(sqEntries)}
	if sqPollCPU >= 0 {
		params.Flags |= ioringSetupSqpoll | ioringSetupSqAff
		params.SQThreadCPU = uint32(sqPollCPU)
		params.SQThreadIdle = uint32(sqThreadIdle.Milliseconds())
	}

	fd, _, errno := unix.Syscall(sysIoUringSetup, uintptr(sqEntries), uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("asyncio: io_uring_setup: %w", errno)
	}

	sqSize := params.SQOff.Array + params.SQEntries*4
	cqSize := params.CQOff.Cqes + params.CQEntries*uint32(unsafe.Sizeof(ioUringCQE{}))
	sqeSize := params.SQEntries * uint32(unsafe.Sizeof(ioUringSQE{}))

	sqMmap, err := unix.Mmap(int(fd), 0, int(sqSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Close(int(fd))
		return nil, fmt.Errorf("asyncio: mmap sq ring: %w", err)
	}
	cqMmap, err := unix.Mmap(int(fd), 0x8000000, int(cqSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(sqMmap)
		unix.Close(int(fd))
		return nil, fmt.Errorf("asyncio: mmap cq ring: %w", err)
	}
	sqeMmap, err := unix.Mmap(int(fd), 0x10000000, int(sqeSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(sqMmap)
		unix.Munmap(cqMmap)
		unix.Close(int(fd))
		return nil, fmt.Errorf("asyncio: mmap sqe array: %w", err)
	}

	u := &uringSubmitter{
		fd:      int(fd),
		sqMmap:  sqMmap,
		cqMmap:  cqMmap,
		sqeMmap: sqeMmap,
		sqHead:  (*uint32)(unsafe.Pointer(&sqMmap[params.SQOff.Head])),
		sqTail:  (*uint32)(unsafe.Pointer(&sqMmap[params.SQOff.Tail])),
		sqMask:  *(*uint32)(unsafe.Pointer(&sqMmap[params.SQOff.RingMask])),
		cqHead:  (*uint32)(unsafe.Pointer(&cqMmap[params.CQOff.Head])),
		cqTail:  (*uint32)(unsafe.Pointer(&cqMmap[params.CQOff.Tail])),
		cqMask:  *(*uint32)(unsafe.Pointer(&cqMmap[params.CQOff.RingMask])),
		slots:   make(map[int]*slot),
	}
	u.sqArr = unsafe.Slice((*uint32)(unsafe.Pointer(&sqMmap[params.SQOff.Array])), params.SQEntries)
	u.sqes = unsafe.Slice((*ioUringSQE)(unsafe.Pointer(&sqeMmap[0])), params.SQEntries)
	u.cqes = unsafe.Slice((*ioUringCQE)(unsafe.Pointer(&cqMmap[params.CQOff.Cqes])), params.CQEntries)

	if err := registerFixedFiles(int(fd), sqEntries); err != nil {
		u.Close()
		return nil, err
	}
	return u, nil
}

func registerFixedFiles(fd int, count int) error {
	files := make([]int32, count)
	for i := range files {
		files[i] = -1
	}
	_, _, errno := unix.Syscall6(sysIoUringRegister, uintptr(fd), uintptr(ioringRegisterFiles),
		uintptr(unsafe.Pointer(&files[0])), uintptr(count), 0, 0)
	if errno != 0 {
		return fmt.Errorf("asyncio: io_uring_register(FILES): %w", errno)
	}
	return nil
}

func (u *uringSubmitter) Register(connIdx int, fd int, buf []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := &slot{fd: fd, buf: buf}
	s.iov = unix.Iovec{Base: &buf[0]}
	s.iov.SetLen(len(buf))
	s.mh.Iov = &s.iov
	s.mh.Iovlen = 1
	s.mh.Control = &s.ctrl[0]
	s.mh.SetControllen(len(s.ctrl))

	// Place fd in the ring's fixed-file table at slot connIdx, the
	// index Submit refers to under IOSQE_FIXED_FILE.
	const ioringRegisterFilesUpdate = 6
	upd := struct {
		Offset uint32
		Resv   uint32
		Fds    uint64
		fd     int32
	}{Offset: uint32(connIdx), fd: int32(fd)}
	upd.Fds = uint64(uintptr(unsafe.Pointer(&upd.fd)))
	_, _, errno := unix.Syscall6(sysIoUringRegister, uintptr(u.fd), ioringRegisterFilesUpdate,
		uintptr(unsafe.Pointer(&upd)), 1, 0, 0)
	if errno != 0 {
		return fmt.Errorf("asyncio: io_uring_register(FILES_UPDATE) slot %d: %w", connIdx, errno)
	}
	u.slots[connIdx] = s
	return nil
}

func (u *uringSubmitter) Unregister(connIdx int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.slots, connIdx)
	return nil
}

func (u *uringSubmitter) Submit(connIdx int) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	s, ok := u.slots[connIdx]
	if !ok {
		return fmt.Errorf("asyncio: submit: connection %d not registered", connIdx)
	}

	tail := *u.sqTail
	idx := tail & u.sqMask
	sqe := &u.sqes[idx]
	*sqe = ioUringSQE{
		Opcode:   ioringOpRecvmsg,
		Flags:    iosqeFixedFile,
		Fd:       int32(connIdx),
		Addr:     uint64(uintptr(unsafe.Pointer(&s.mh))),
		Len:      1,
		UserData: uint64(connIdx),
	}
	u.sqArr[idx] = idx
	atomic.StoreUint32(u.sqTail, tail+1)

	_, _, errno := unix.Syscall6(sysIoUringEnter, uintptr(u.fd), 1, 0, 0, 0, 0)
	if errno != 0 {
		return fmt.Errorf("asyncio: io_uring_enter(submit): %w", errno)
	}
	return nil
}

// Reap collects completions from the CQ ring. A timeout of zero only
// collects completions already posted; any non-zero timeout, positive
// or negative, waits for at least one completion with no time bound.
func (u *uringSubmitter) Reap(timeout time.Duration, fn func(Completion)) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	minComplete := uintptr(0)
	if timeout < 0 || timeout > 0 {
		minComplete = 1
	}
	_, _, errno := unix.Syscall6(sysIoUringEnter, uintptr(u.fd), 0, minComplete, ioringEnterGetevents, 0, 0)
	if errno != 0 && errno != unix.EINTR {
		return fmt.Errorf("asyncio: io_uring_enter(reap): %w", errno)
	}

	head := *u.cqHead
	tail := atomic.LoadUint32(u.cqTail)
	for head != tail {
		cqe := u.cqes[head&u.cqMask]
		connIdx := int(cqe.UserData)
		c := Completion{ConnIdx: connIdx}
		if cqe.Res < 0 {
			c.Err = fmt.Errorf("asyncio: recvmsg cqe: %w", unix.Errno(-cqe.Res))
		} else {
			c.N = int(cqe.Res)
			if s, ok := u.slots[connIdx]; ok {
				c.RxKernel = kernelTimestamp(s)
			}
			if c.N == 0 {
				c.Err = ErrConnectionClosed
			}
		}
		fn(c)
		head++
	}
	atomic.StoreUint32(u.cqHead, head)
	return nil
}

// kernelTimestamp extracts the SCM_TIMESTAMP ancillary message left in
// a slot's control buffer by the last reaped recvmsg, per CMSG_FIRSTHDR
// in the original implementation. Returns the zero Time if the kernel
// did not attach one (SO_TIMESTAMP not enabled, or no data this read).
func kernelTimestamp(s *slot) time.Time {
	msgs, err := unix.ParseSocketControlMessage(s.ctrl[:])
	if err != nil {
		return time.Time{}
	}
	for _, m := range msgs {
		if m.Header.Level != unix.SOL_SOCKET || m.Header.Type != unix.SCM_TIMESTAMP {
			continue
		}
		if len(m.Data) < int(unsafe.Sizeof(unix.Timeval{})) {
			continue
		}
		tv := (*unix.Timeval)(unsafe.Pointer(&m.Data[0]))
		return tstamp.FromKernel(int64(tv.Sec), int64(tv.Usec))
	}
	return time.Time{}
}

// FD exposes the raw io_uring file descriptor so the gateway can hand
// it to the order-management sibling over a pipe when SQ polling is
// enabled (spec.md §6, ring FD hand-off).
func (u *uringSubmitter) FD() int { return u.fd }

func (u *uringSubmitter) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	unix.Munmap(u.sqeMmap)
	unix.Munmap(u.cqMmap)
	unix.Munmap(u.sqMmap)
	return unix.Close(u.fd)
}
