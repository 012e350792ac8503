package debug

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BootstrapSummary reports the venue, how many connections came up and
// how long startup took, as one plain line; it prints no byte counts.
func BootstrapSummary(w io.Writer, venue string, connections int, elapsed time.Duration) {
	fmt.Fprintf(w, "gateway bootstrap: venue=%s connections=%d elapsed=%s\n",
		venue, connections, elapsed.Round(time.Millisecond))
}

// Printer reports per-connection throughput when the gateway shuts
// down, using a locale-formatted printer for large counters so a
// multi-million-message run doesn't print as an unreadable digit wall.
type Printer struct {
	p *message.Printer
	w io.Writer
}

// NewPrinter constructs a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{p: message.NewPrinter(language.English), w: w}
}

// Report prints one line per connection: symbol, packets emitted,
// total plaintext bytes (humanized), and packets dropped because the
// queue was full when the retry budget ran out.
func (pr *Printer) Report(symbol string, packets uint64, bytes uint64, dropped uint64) {
	pr.p.Fprintf(pr.w, "%-16s packets=%d bytes=%s (%d) dropped=%d\n",
		symbol, packets, humanize.Bytes(bytes), bytes, dropped)
}

// Final prints the aggregate run summary across every connection.
func (pr *Printer) Final(elapsed time.Duration, totalPackets, totalBytes, totalDropped uint64) {
	pr.p.Fprintf(pr.w, "\nFINAL REPORT\n")
	pr.p.Fprintf(pr.w, " elapsed:  %s\n", elapsed.Round(time.Millisecond))
	pr.p.Fprintf(pr.w, " packets:  %d\n", totalPackets)
	pr.p.Fprintf(pr.w, " bytes:    %s (%d)\n", humanize.Bytes(totalBytes), totalBytes)
	pr.p.Fprintf(pr.w, " dropped:  %d\n", totalDropped)
}
