package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const (
	bitgetWebsocketURL     = "wss://ws.bitget.com/spot/v1/stream"
	bitgetSwapWebsocketURL = "wss://ws.bitget.com/mix/v1/stream" // margin-coin (swap) contracts
)

// bitgetInstType returns the instType Bitget's subscribe frame carries for a
// market type: "sp" for spot, "mc" for margin-coin (swap) contracts.
func bitgetInstType(marketType domain.MarketType) string {
	if marketType == domain.Spot {
		return "sp"
	}
	return "mc"
}

func bitgetSubscribeCmdFor(marketType domain.MarketType) domain.SubscribeCmdBuilder {
	return func(channels []domain.Channel, subscribe bool) ([]string, error) {
		return bitgetSubscribeCmd(marketType, channels, subscribe)
	}
}

func bitgetSubscribeCmd(marketType domain.MarketType, channels []domain.Channel, subscribe bool) ([]string, error) {
	type arg struct {
		InstType string `json:"instType"`
		Channel  string `json:"channel"`
		InstID   string `json:"instId"`
	}
	instType := bitgetInstType(marketType)
	var args []arg
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("bitget: malformed channel %q", string(ch))
		}
		args = append(args, arg{InstType: instType, Channel: name, InstID: pair})
	}
	cmds := passthrough
	if len(args) > 0 {
		op := "subscribe"
		if !subscribe {
			op = "unsubscribe"
		}
		body, err := json.Marshal(map[string]interface{}{"op": op, "args": args})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func bitgetClassify(f domain.Frame) domain.Classification {
	s := string(f.Data)
	if s == "pong" {
		return domain.Pong
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if event, ok := obj["event"]; ok {
		if string(event) == `"error"` {
			return domain.Error
		}
		return domain.Misc
	}
	if _, ok := obj["data"]; ok {
		return domain.Normal
	}
	return domain.Misc
}

func bitgetChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "trade"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "books"
	default:
		return "", fmt.Errorf("bitget: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Bitget builds the Adapter for one crawl request against Bitget: spot and
// margin-coin (swap) contracts share the same channel/instId framing, on
// separate hosts and instType tags.
func Bitget(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "bitget",
		MarketType:           req.MarketType,
		Classify:             bitgetClassify,
		ChannelFor:           bitgetChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 20 * time.Second, Payload: "ping"},
		MaxSubsPerConnection: 100,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}

	switch req.MarketType {
	case domain.Spot:
		a.URL = bitgetWebsocketURL
	case domain.LinearSwap, domain.InverseSwap:
		a.URL = bitgetSwapWebsocketURL
	default:
		return domain.Adapter{}, nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
	}
	a.SubscribeCmdBuilder = bitgetSubscribeCmdFor(req.MarketType)

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
