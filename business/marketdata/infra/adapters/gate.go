package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const (
	gateSpotWebsocketURL           = "wss://api.gateio.ws/ws/v4/"
	gateFuturesWebsocketURL        = "wss://fx-ws.gateio.ws/v4/ws/usdt" // linear (USDT-margined) swaps and futures
	gateInverseFuturesWebsocketURL = "wss://fx-ws.gateio.ws/v4/ws/btc"  // inverse (coin-margined) swaps
)

// gateSubscribeCmd renders Gate's {"channel":...,"event":"subscribe",
// "payload":[...]} frame, one per channel name (payload carries that
// channel's pairs).
func gateSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	byName := map[string][]string{}
	var order []string
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("gate: malformed channel %q", string(ch))
		}
		if _, seen := byName[name]; !seen {
			order = append(order, name)
		}
		byName[name] = append(byName[name], pair)
	}

	event := "subscribe"
	if !subscribe {
		event = "unsubscribe"
	}
	cmds := passthrough
	for _, name := range order {
		body, err := json.Marshal(map[string]interface{}{
			"time":    0,
			"channel": name,
			"event":   event,
			"payload": byName[name],
		})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func gateClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if channel, ok := obj["channel"]; ok && string(channel) == `"spot.pong"` {
		return domain.Pong
	}
	result, hasResult := obj["result"]
	if errRaw, ok := obj["error"]; ok && string(errRaw) != "null" {
		return domain.Error
	}
	if event, ok := obj["event"]; ok && string(event) == `"subscribe"` {
		return domain.Misc
	}
	if hasResult && string(result) != "null" {
		return domain.Normal
	}
	return domain.Misc
}

func gateChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "spot.trades"
	case domain.ChannelKindTicker:
		name = "spot.tickers"
	case domain.ChannelKindL2Event:
		name = "spot.order_book_update"
	default:
		return "", fmt.Errorf("gate: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Gate builds the Adapter for one crawl request against Gate.io: spot,
// USDT-margined (linear) swap/future, and BTC-margined (inverse) swap all
// share this dialect, on separate hosts per market type.
func Gate(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "gate",
		MarketType:           req.MarketType,
		SubscribeCmdBuilder:  gateSubscribeCmd,
		Classify:             gateClassify,
		ChannelFor:           gateChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 15 * time.Second, Payload: `{"channel":"spot.ping"}`},
		MaxSubsPerConnection: 0,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}

	switch req.MarketType {
	case domain.Spot:
		a.URL = gateSpotWebsocketURL
	case domain.LinearSwap, domain.LinearFuture:
		a.URL = gateFuturesWebsocketURL
	case domain.InverseSwap:
		a.URL = gateInverseFuturesWebsocketURL
	default:
		return domain.Adapter{}, nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
	}

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
