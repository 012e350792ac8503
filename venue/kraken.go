package venue

import "github.com/sugawarayuuta/sonnet"

type krakenParams struct {
	Channel  string   `json:"channel"`
	Depth    int      `json:"depth"`
	Snapshot bool     `json:"snapshot"`
	Symbol   []string `json:"symbol"`
}

type krakenSubscribe struct {
	Method string       `json:"method"`
	Params krakenParams `json:"params"`
	ReqID  int64        `json:"req_id"`
}

type kraken struct {
	name     string
	endpoint string
	host     string
}

// Kraken is Kraken's production WebSocket v2 order-book feed.
func Kraken() Venue {
	return &kraken{name: "kraken", endpoint: "ws.kraken.com:443", host: "ws.kraken.com"}
}

func (k *kraken) Name() string     { return k.name }
func (k *kraken) Endpoint() string { return k.endpoint }
func (k *kraken) Host() string     { return k.host }
func (k *kraken) Path() string     { return "/v2" }

func (k *kraken) SubscribeFrame(symbol string) ([]byte, error) {
	payload, err := sonnet.Marshal(krakenSubscribe{
		Method: "subscribe",
		Params: krakenParams{
			Channel:  "book",
			Depth:    10,
			Snapshot: true,
			Symbol:   []string{symbol},
		},
		ReqID: 1234567890,
	})
	if err != nil {
		return nil, err
	}
	return textFrame(payload), nil
}
