package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const bitmexWebsocketURL = "wss://www.bitmex.com/realtime"

// bitmexSubscribeCmd batches every "channel:pair" string into one
// {"op":"subscribe","args":[...]} frame, BitMEX's documented convention.
func bitmexSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
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

func bitmexClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if _, ok := obj["error"]; ok {
		return domain.Error
	}
	if _, ok := obj["table"]; ok {
		return domain.Normal
	}
	return domain.Misc // "success"/"subscribe" ack, "info" banner
}

func bitmexChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "trade"
	case domain.ChannelKindBBO:
		name = "quote"
	case domain.ChannelKindL2Event:
		name = "orderBookL2"
	case domain.ChannelKindFundingRate:
		name = "funding"
	default:
		return "", fmt.Errorf("bitmex: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Bitmex builds the Adapter for one crawl request against BitMEX, which
// offers inverse futures/swaps on a single shared endpoint.
func Bitmex(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	switch req.MarketType {
	case domain.InverseSwap, domain.InverseFuture:
	default:
		return domain.Adapter{}, nil, errUnsupported("bitmex", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "bitmex",
		MarketType:           req.MarketType,
		URL:                  bitmexWebsocketURL,
		SubscribeCmdBuilder:  bitmexSubscribeCmd,
		Classify:             bitmexClassify,
		ChannelFor:           bitmexChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 5 * time.Second, Payload: "ping"},
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
