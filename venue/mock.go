package venue

// mock wraps a production venue, keeping its upgrade Path but sending
// no subscribe frame, and dials a test double instead of the real
// endpoint, for integration testing
// without touching a live exchange. The original system hardcoded its
// mock endpoint at compile time; here it's a config field so tests and
// operators can point it anywhere.
type mock struct {
	Venue
	name     string
	endpoint string
	host     string
}

// MockBitMEX wraps BitMEX (its upgrade path, not its subscribe frame)
// around a caller-supplied mock endpoint address (host:port).
func MockBitMEX(addr string) Venue {
	return &mock{Venue: BitMEX(), name: "bitmex-mock", endpoint: addr, host: "localhost"}
}

// MockKraken wraps Kraken (its upgrade path, not its subscribe frame)
// around a caller-supplied mock endpoint address (host:port).
func MockKraken(addr string) Venue {
	return &mock{Venue: Kraken(), name: "kraken-mock", endpoint: addr, host: "localhost"}
}

func (m *mock) Name() string     { return m.name }
func (m *mock) Endpoint() string { return m.endpoint }
func (m *mock) Host() string     { return m.host }

// SubscribeFrame returns no frame: mock servers push order-book updates
// unsolicited, per the production venues they stand in for never being
// asked to.
func (m *mock) SubscribeFrame(symbol string) ([]byte, error) { return nil, nil }
