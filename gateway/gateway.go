// Package gateway bootstraps N authenticated WebSocket subscriptions
// to an exchange order-book feed and drives the read-path state machine
// described in spec.md §4.1–§4.7: readiness → async-read submit →
// completion reap → TLS decrypt → enqueue. It is the only package that
// wires together asyncio, tlsrecord, wsproto, venue, queue, and
// cpupoll into one running process.
package gateway

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"mdgw/asyncio"
	"mdgw/config"
	"mdgw/cpupoll"
	"mdgw/debug"
	"mdgw/queue"
	"mdgw/venue"
)

// ErrBootstrapFailed wraps any fatal error that aborts bootstrap before
// the service loop is entered, per spec.md §7.
type ErrBootstrapFailed struct {
	Err error
}

func (e *ErrBootstrapFailed) Error() string { return "gateway: bootstrap failed: " + e.Err.Error() }
func (e *ErrBootstrapFailed) Unwrap() error { return e.Err }

// Gateway owns the full connection set and drives the event loop from
// a single pinned thread (spec §5). All fields except dropped (read by
// diagnostics from any goroutine) are touched only by that thread.
type Gateway struct {
	cfg         config.Config
	q           *queue.Ring[queue.Entry]
	submitter   asyncio.Submitter
	connections []*connection
	dropped     atomic.Uint64

	pipeOutFD int

	// epfd is the epoll instance backing the Linux readiness loop; it
	// is unused (left zero) on other platforms, where the fallback
	// loop polls connections directly instead.
	epfd int
}

// New constructs a Gateway for the given configuration and symbol
// list, ready for Bootstrap. q is the downstream SPSC queue the
// book-building consumer polls.
func New(cfg config.Config, symbols []string, q *queue.Ring[queue.Entry]) (*Gateway, error) {
	v, err := resolveVenue(cfg)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("gateway: no symbols in portfolio %q", cfg.Portfolio)
	}

	g := &Gateway{cfg: cfg, q: q, pipeOutFD: cfg.PipeOutFD}
	g.connections = make([]*connection, len(symbols))
	for i, sym := range symbols {
		g.connections[i] = newConnection(i, sym, v, cfg.RxBufSize)
	}
	return g, nil
}

func resolveVenue(cfg config.Config) (venue.Venue, error) {
	switch cfg.Venue {
	case config.VenueBitMEX:
		return venue.BitMEX(), nil
	case config.VenueBitMEXTestnet:
		return venue.BitMEXTestnet(), nil
	case config.VenueKraken:
		return venue.Kraken(), nil
	case config.VenueMockBitMEX:
		return venue.MockBitMEX(cfg.MockAddr), nil
	case config.VenueMockKraken:
		return venue.MockKraken(cfg.MockAddr), nil
	default:
		return nil, fmt.Errorf("gateway: unknown venue %q", cfg.Venue)
	}
}

// Bootstrap pins the calling OS thread to the configured CPU,
// establishes every connection serially, registers them with the
// async-read submitter, and arms the readiness loop. It blocks until
// every connection is Ready or returns ErrBootstrapFailed.
//
// The caller must not call Bootstrap from a goroutine it intends to
// move later: runtime.LockOSThread pins this goroutine to its OS
// thread for the rest of the process, and SetAffinity pins that thread
// to cfg.GatewayCPU.
func (g *Gateway) Bootstrap() error {
	if g.cfg.GatewayCPU >= runtime.NumCPU() {
		return &ErrBootstrapFailed{Err: fmt.Errorf("gateway-cpu %d >= NumCPU %d", g.cfg.GatewayCPU, runtime.NumCPU())}
	}

	runtime.LockOSThread()
	cpupoll.SetAffinity(g.cfg.GatewayCPU)

	sub, err := newSubmitter(g.cfg)
	if err != nil {
		return &ErrBootstrapFailed{Err: err}
	}
	g.submitter = sub

	if err := g.initReadiness(); err != nil {
		sub.Close()
		return &ErrBootstrapFailed{Err: err}
	}

	if err := g.publishRingFD(); err != nil {
		sub.Close()
		return &ErrBootstrapFailed{Err: err}
	}

	start := time.Now()
	for _, c := range g.connections {
		if err := c.connect(g.cfg.IsMock()); err != nil {
			sub.Close()
			return &ErrBootstrapFailed{Err: err}
		}
		if err := g.armConnection(c); err != nil {
			sub.Close()
			return &ErrBootstrapFailed{Err: err}
		}
	}

	debug.BootstrapSummary(os.Stderr, g.cfg.Venue, len(g.connections), time.Since(start))
	return nil
}

// Dropped reports how many queue entries were dropped because the
// downstream consumer never caught up within the push-retry budget.
func (g *Gateway) Dropped() uint64 { return g.dropped.Load() }

// Report prints one line per connection plus an aggregate summary to
// w, in the pack's humanized-counter reporting style. Drops are counted
// only in aggregate, so each per-connection line reports dropped=0 and
// the total appears in the final summary.
func (g *Gateway) Report(w io.Writer, elapsed time.Duration) {
	pr := debug.NewPrinter(w)
	var totalPackets, totalBytes uint64
	for _, c := range g.connections {
		p, b := c.packets.Load(), c.bytes.Load()
		totalPackets += p
		totalBytes += b
		pr.Report(c.symbol, p, b, 0)
	}
	pr.Final(elapsed, totalPackets, totalBytes, g.Dropped())
}

// Close tears down the submitter and every connection's socket. Safe
// to call after Run returns or after a failed Bootstrap.
func (g *Gateway) Close() {
	if g.submitter != nil {
		g.submitter.Close()
	}
	for _, c := range g.connections {
		if c.raw != nil {
			c.raw.Close()
		}
	}
}
