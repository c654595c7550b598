package adapters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const bitstampWebsocketURL = "wss://ws.bitstamp.net"

func bitstampSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	event := "bts:subscribe"
	if !subscribe {
		event = "bts:unsubscribe"
	}
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		body, err := json.Marshal(map[string]interface{}{
			"event": event,
			"data":  map[string]string{"channel": string(ch)},
		})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func bitstampClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	event, ok := obj["event"]
	if !ok {
		return domain.Misc
	}
	switch strings.Trim(string(event), `"`) {
	case "bts:error":
		return domain.Error
	case "bts:subscription_succeeded", "bts:heartbeat":
		return domain.Misc
	default:
		return domain.Normal
	}
}

func bitstampChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	switch kind {
	case domain.ChannelKindTrade:
		return domain.Channel("live_trades_" + pair), nil
	case domain.ChannelKindL2Event:
		return domain.Channel("diff_order_book_" + pair), nil
	case domain.ChannelKindL2Snapshot:
		return domain.Channel("order_book_" + pair), nil
	case domain.ChannelKindL3Event:
		return domain.Channel("detail_order_book_" + pair), nil
	default:
		return "", fmt.Errorf("bitstamp: unsupported channel kind %d", kind)
	}
}

// Bitstamp builds the Adapter for one crawl request against Bitstamp's
// public WebSocket (spot only; Bitstamp pings the client, so no
// client-initiated Keepalive is configured).
func Bitstamp(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("bitstamp", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "bitstamp",
		MarketType:           domain.Spot,
		URL:                  bitstampWebsocketURL,
		SubscribeCmdBuilder:  bitstampSubscribeCmd,
		Classify:             bitstampClassify,
		ChannelFor:           bitstampChannelFor,
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
