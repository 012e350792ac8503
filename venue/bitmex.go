package venue

import "github.com/sugawarayuuta/sonnet"

type bitmexSubscribe struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bitmex struct {
	name     string
	endpoint string
	host     string
}

// BitMEX is the production BitMEX order-book feed.
func BitMEX() Venue {
	return &bitmex{name: "bitmex", endpoint: "www.bitmex.com:443", host: "www.bitmex.com"}
}

// BitMEXTestnet is BitMEX's public testnet feed, useful for integration
// testing against real exchange behavior without real funds or venue
// rate-limit risk.
func BitMEXTestnet() Venue {
	return &bitmex{name: "bitmex-testnet", endpoint: "testnet.bitmex.com:443", host: "testnet.bitmex.com"}
}

func (b *bitmex) Name() string     { return b.name }
func (b *bitmex) Endpoint() string { return b.endpoint }
func (b *bitmex) Host() string     { return b.host }
func (b *bitmex) Path() string     { return "/realtime" }

func (b *bitmex) SubscribeFrame(symbol string) ([]byte, error) {
	payload, err := sonnet.Marshal(bitmexSubscribe{
		Op:   "subscribe",
		Args: []string{"orderBookL2_25:" + symbol},
	})
	if err != nil {
		return nil, err
	}
	return textFrame(payload), nil
}
