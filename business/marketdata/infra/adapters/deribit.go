package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const deribitWebsocketURL = "wss://www.deribit.com/ws/api/v2"

// deribitSubscribeCmd renders Deribit's JSON-RPC 2.0 envelope: one
// "public/subscribe" call carrying every requested channel.
func deribitSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	var chans []string
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		chans = append(chans, string(ch))
	}
	cmds := passthrough
	if len(chans) > 0 {
		method := "public/subscribe"
		if !subscribe {
			method = "public/unsubscribe"
		}
		body, err := json.Marshal(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      9527,
			"method":  method,
			"params":  map[string]interface{}{"channels": chans},
		})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func deribitClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if _, ok := obj["error"]; ok {
		return domain.Error
	}
	if method, ok := obj["method"]; ok {
		switch string(method) {
		case `"heartbeat"`:
			return domain.Pong
		case `"subscription"`:
			return domain.Normal
		default:
			return domain.Misc
		}
	}
	return domain.Misc // JSON-RPC result ack to our own subscribe call
}

func deribitChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	switch kind {
	case domain.ChannelKindTrade:
		return domain.Channel("trades." + pair + ".raw"), nil
	case domain.ChannelKindTicker:
		return domain.Channel("ticker." + pair + ".raw"), nil
	case domain.ChannelKindL2Event:
		return domain.Channel("book." + pair + ".raw"), nil
	default:
		return "", fmt.Errorf("deribit: unsupported channel kind %d", kind)
	}
}

// Deribit builds the Adapter for one crawl request against Deribit, whose
// options and inverse swaps/futures share one endpoint and dialect.
func Deribit(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	switch req.MarketType {
	case domain.InverseSwap, domain.InverseFuture, domain.EuropeanOption:
	default:
		return domain.Adapter{}, nil, errUnsupported("deribit", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "deribit",
		MarketType:           req.MarketType,
		URL:                  deribitWebsocketURL,
		SubscribeCmdBuilder:  deribitSubscribeCmd,
		Classify:             deribitClassify,
		ChannelFor:           deribitChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 30 * time.Second, Payload: `{"jsonrpc":"2.0","id":9528,"method":"public/test"}`},
		MaxSubsPerConnection: 0,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}
	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
