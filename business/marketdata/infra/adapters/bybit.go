package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const (
	bybitSpotWebsocketURL    = "wss://stream.bybit.com/v5/public/spot"
	bybitLinearWebsocketURL  = "wss://stream.bybit.com/v5/public/linear"
	bybitInverseWebsocketURL = "wss://stream.bybit.com/v5/public/inverse"
	bybitOptionWebsocketURL  = "wss://stream.bybit.com/v5/public/option"
)

func bybitSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	var args []string
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		args = append(args, string(ch))
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

func bybitClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if op, ok := obj["op"]; ok {
		if string(op) == `"ping"` {
			return domain.Misc
		}
		if string(op) == `"pong"` {
			return domain.Pong
		}
		return domain.Misc // subscribe ack
	}
	if success, ok := obj["success"]; ok && string(success) == "false" {
		return domain.Error
	}
	if _, ok := obj["topic"]; ok {
		return domain.Normal
	}
	return domain.Misc
}

func bybitChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	switch kind {
	case domain.ChannelKindTrade:
		return domain.Channel("publicTrade." + pair), nil
	case domain.ChannelKindTicker:
		return domain.Channel("tickers." + pair), nil
	case domain.ChannelKindL2Event:
		return domain.Channel("orderbook.50." + pair), nil
	case domain.ChannelKindFundingRate:
		return domain.Channel("tickers." + pair), nil // funding rate rides the ticker topic on v5
	default:
		return "", fmt.Errorf("bybit: unsupported channel kind %d", kind)
	}
}

// Bybit builds the Adapter for one crawl request against Bybit's v5 public
// API, which splits spot/linear/inverse/option onto separate hosts sharing
// one {"op":"subscribe","args":[...]} dialect.
func Bybit(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "bybit",
		MarketType:           req.MarketType,
		SubscribeCmdBuilder:  bybitSubscribeCmd,
		Classify:             bybitClassify,
		ChannelFor:           bybitChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 20 * time.Second, Payload: `{"op":"ping"}`},
		MaxSubsPerConnection: 10,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}

	switch req.MarketType {
	case domain.Spot:
		a.URL = bybitSpotWebsocketURL
	case domain.LinearSwap, domain.LinearFuture:
		a.URL = bybitLinearWebsocketURL
	case domain.InverseSwap, domain.InverseFuture:
		a.URL = bybitInverseWebsocketURL
	case domain.EuropeanOption, domain.AmericanOption:
		a.URL = bybitOptionWebsocketURL
	default:
		return domain.Adapter{}, nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
	}

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
