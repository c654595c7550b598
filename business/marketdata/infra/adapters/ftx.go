package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const ftxWebsocketURL = "wss://ftx.com/ws/"

func ftxSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	op := "subscribe"
	if !subscribe {
		op = "unsubscribe"
	}
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("ftx: malformed channel %q", string(ch))
		}
		body, err := json.Marshal(map[string]string{"op": op, "channel": name, "market": pair})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func ftxClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	typ, ok := obj["type"]
	if !ok {
		return domain.Misc
	}
	switch string(typ) {
	case `"pong"`:
		return domain.Pong
	case `"error"`:
		return domain.Error
	case `"subscribed"`, `"unsubscribed"`, `"info"`:
		return domain.Misc
	case `"update"`, `"partial"`:
		return domain.Normal
	default:
		return domain.Misc
	}
}

func ftxChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "trades"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "orderbook"
	default:
		return "", fmt.Errorf("ftx: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Ftx builds the Adapter for one crawl request against FTX, which offered
// spot and linear perpetual markets on one endpoint. Kept for historical
// completeness of the venue roster even though FTX itself has since wound
// down.
func Ftx(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	switch req.MarketType {
	case domain.Spot, domain.LinearSwap:
	default:
		return domain.Adapter{}, nil, errUnsupported("ftx", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "ftx",
		MarketType:           req.MarketType,
		URL:                  ftxWebsocketURL,
		SubscribeCmdBuilder:  ftxSubscribeCmd,
		Classify:             ftxClassify,
		ChannelFor:           ftxChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 15 * time.Second, Payload: `{"op":"ping"}`},
		MaxSubsPerConnection: 0,
		SendInterval:         200 * time.Millisecond,
		ConnectInterval:      time.Second,
	}
	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
