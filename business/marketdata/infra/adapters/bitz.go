package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const bitzWebsocketURL = "wss://apiv2.bitz.com/ws"

func bitzSubscribeCmd(channels []domain.Channel, _ bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("bitz: malformed channel %q", string(ch))
		}
		body, err := json.Marshal(map[string]string{"action": name, "symbol": pair})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func bitzClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if status, ok := obj["status"]; ok && string(status) != "200" {
		return domain.Error
	}
	if _, ok := obj["data"]; ok {
		return domain.Normal
	}
	return domain.Misc
}

func bitzChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "Market_OrderDetail"
	case domain.ChannelKindTicker:
		name = "Market_Index24H"
	default:
		return "", fmt.Errorf("bitz: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Bitz builds the Adapter for one crawl request against Bitz spot.
func Bitz(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("bitz", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "bitz",
		MarketType:           domain.Spot,
		URL:                  bitzWebsocketURL,
		SubscribeCmdBuilder:  bitzSubscribeCmd,
		Classify:             bitzClassify,
		ChannelFor:           bitzChannelFor,
		Keepalive:            &domain.Keepalive{Interval: 20 * time.Second, Payload: `{"action":"Ping"}`},
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
