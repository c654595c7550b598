package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const krakenWebsocketURL = "wss://ws.kraken.com"

// krakenSubscribeCmd renders Kraken's {"event":"subscribe","pair":[...],
// "subscription":{"name":"..."}} frame, one per distinct channel name since
// Kraken takes one subscription name per frame but many pairs.
func krakenSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
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
			return nil, fmt.Errorf("kraken: malformed channel %q", string(ch))
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
			"event": event,
			"pair":  byName[name],
			"subscription": map[string]string{
				"name": name,
			},
		})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func krakenClassify(f domain.Frame) domain.Classification {
	s := string(f.Data)
	if len(s) > 0 && s[0] == '[' {
		return domain.Normal // array-framed channel update
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if event, ok := obj["event"]; ok {
		switch string(event) {
		case `"heartbeat"`:
			return domain.Pong
		case `"subscriptionStatus"`:
			if status, ok := obj["status"]; ok && string(status) == `"error"` {
				return domain.Error
			}
			return domain.Misc
		default:
			return domain.Misc
		}
	}
	return domain.Misc
}

func krakenChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "trade"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindBBO:
		name = "spread"
	case domain.ChannelKindL2Event:
		name = "book"
	default:
		return "", fmt.Errorf("kraken: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Kraken builds the Adapter for one crawl request against Kraken's spot
// public WebSocket.
func Kraken(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("kraken", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "kraken",
		MarketType:           domain.Spot,
		URL:                  krakenWebsocketURL,
		SubscribeCmdBuilder:  krakenSubscribeCmd,
		Classify:             krakenClassify,
		ChannelFor:           krakenChannelFor,
		MaxSubsPerConnection: 50,
		SendInterval:         200 * time.Millisecond,
		ConnectInterval:      time.Second,
	}
	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
