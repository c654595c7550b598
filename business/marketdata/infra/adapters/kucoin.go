package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

// kucoinWebsocketURL is the static endpoint the Kucoin adapter dials. The
// per-session token and endpoint that KuCoin hands out via a POST to
// /api/v1/bullet-public are not fetched anywhere in this module, and the
// adapter sets no UplinkURLOverrides.
const kucoinWebsocketURL = "wss://ws-api-spot.kucoin.com/"

func kucoinSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	typ := "subscribe"
	if !subscribe {
		typ = "unsubscribe"
	}
	for i, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		body, err := json.Marshal(map[string]interface{}{
			"id":             fmt.Sprintf("kc-%d", i),
			"type":           typ,
			"topic":          string(ch),
			"privateChannel": false,
			"response":       true,
		})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func kucoinClassify(f domain.Frame) domain.Classification {
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
	case `"ack"`, `"welcome"`:
		return domain.Misc
	case `"error"`:
		return domain.Error
	case `"message"`:
		return domain.Normal
	default:
		return domain.Misc
	}
}

func kucoinChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	switch kind {
	case domain.ChannelKindTrade:
		return domain.Channel("/market/match:" + pair), nil
	case domain.ChannelKindTicker:
		return domain.Channel("/market/snapshot:" + pair), nil
	case domain.ChannelKindL2Event:
		return domain.Channel("/market/level2:" + pair), nil
	case domain.ChannelKindL3Event:
		return domain.Channel("/market/level3:" + pair), nil
	default:
		return "", fmt.Errorf("kucoin: unsupported channel kind %d", kind)
	}
}

// Kucoin builds the Adapter for one crawl request against KuCoin spot.
func Kucoin(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("kucoin", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "kucoin",
		MarketType:           domain.Spot,
		URL:                  kucoinWebsocketURL,
		SubscribeCmdBuilder:  kucoinSubscribeCmd,
		Classify:             kucoinClassify,
		ChannelFor:           kucoinChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 30 * time.Second, Payload: `{"id":"ping","type":"ping"}`},
		MaxSubsPerConnection: 100,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}
	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
