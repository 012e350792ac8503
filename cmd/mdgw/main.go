// Command mdgw runs the market data ingestion gateway: it loads a
// symbol portfolio from the SQLite catalog, opens one authenticated
// WebSocket order-book subscription per symbol, and drains decoded
// updates into an SPSC queue for a downstream book-building consumer.
//
// PHASE 0: configuration and portfolio load
// PHASE 1: bootstrap — dial, TLS handshake, WebSocket upgrade, arm the
//
//	async-read submitter
//
// PHASE 2: production event loop until SIGINT/SIGTERM
package main

import (
	"os"
	"os/signal"
	"runtime"
	rtdebug "runtime/debug"
	"strconv"
	"syscall"
	"time"

	"mdgw/config"
	"mdgw/control"
	"mdgw/debug"
	"mdgw/gateway"
	"mdgw/portfolio"
	"mdgw/queue"

	_ "github.com/mattn/go-sqlite3"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		debug.DropError("INIT", err)
		os.Exit(2)
	}

	debug.DropMessage("INIT", "loading portfolio "+cfg.Portfolio+" from "+cfg.PortfolioDB)
	db, err := portfolio.Open(cfg.PortfolioDB)
	if err != nil {
		debug.DropError("INIT", err)
		os.Exit(1)
	}
	if err := portfolio.Seed(db); err != nil {
		debug.DropError("INIT", err)
		os.Exit(1)
	}
	symbols, err := portfolio.Load(db, cfg.Portfolio)
	db.Close()
	if err != nil {
		debug.DropError("INIT", err)
		os.Exit(1)
	}
	debug.DropMessage("LOADED", cfg.Portfolio+": "+strconv.Itoa(len(symbols))+" symbols")

	q := queue.New[queue.Entry](cfg.QueueCapacity)

	gw, err := gateway.New(*cfg, symbols, q)
	if err != nil {
		debug.DropError("INIT", err)
		os.Exit(1)
	}

	setupSignalHandling()

	debug.DropMessage("BOOTSTRAP", "connecting "+strconv.Itoa(len(symbols))+" subscriptions to "+cfg.Venue)
	if err := gw.Bootstrap(); err != nil {
		debug.DropError("BOOTSTRAP", err)
		os.Exit(1)
	}

	// Bootstrap is done; the event loop that follows runs indefinitely
	// with GC tuned down so its own pauses don't show up as latency.
	runtime.GC()
	rtdebug.FreeOSMemory()
	rtdebug.SetGCPercent(400)

	if cfg.RunTimeout > 0 {
		go func() {
			time.Sleep(time.Duration(cfg.RunTimeout) * time.Second)
			debug.DropMessage("TIMEOUT", "run-timeout-seconds elapsed, shutting down")
			control.Shutdown()
		}()
	}

	go runConsumer(q)

	debug.DropMessage("RUNNING", "entering event loop")
	runStart := time.Now()
	if err := gw.Run(); err != nil {
		debug.DropError("RUN", err)
	}

	gw.Close()
	gw.Report(os.Stderr, time.Since(runStart))
}

// runConsumer stands in for the downstream book-building process this
// gateway feeds: it drains the SPSC queue so entries don't pile up
// and trigger QueueFull drops during development and mock-venue runs.
func runConsumer(q *queue.Ring[queue.Entry]) {
	stop, _ := control.Flags()
	for {
		if _, ok := q.PopWait(stop); !ok {
			return
		}
	}
}

// setupSignalHandling arranges for SIGINT/SIGTERM to request a clean
// shutdown through the control package rather than killing the
// process outright, so in-flight reads get drained.
func setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "received interrupt, shutting down")
		control.Shutdown()
	}()
}

