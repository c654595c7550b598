package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const coinbaseProWebsocketURL = "wss://ws-feed.exchange.coinbase.com"

// coinbaseProSubscribeCmd batches every channel into one
// {"type":"subscribe","product_ids":[...],"channels":[...]} frame.
func coinbaseProSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	productSet := map[string]struct{}{}
	channelSet := map[string]struct{}{}
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("coinbase_pro: malformed channel %q", string(ch))
		}
		channelSet[name] = struct{}{}
		productSet[pair] = struct{}{}
	}

	var products, chs []string
	for p := range productSet {
		products = append(products, p)
	}
	for c := range channelSet {
		chs = append(chs, c)
	}

	cmds := passthrough
	if len(products) > 0 {
		typ := "subscribe"
		if !subscribe {
			typ = "unsubscribe"
		}
		body, err := json.Marshal(map[string]interface{}{
			"type":        typ,
			"product_ids": products,
			"channels":    chs,
		})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func coinbaseProClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	typ, ok := obj["type"]
	if !ok {
		return domain.Misc
	}
	switch string(typ) {
	case `"error"`:
		return domain.Error
	case `"subscriptions"`:
		return domain.Misc
	case `"heartbeat"`:
		return domain.Pong
	default:
		return domain.Normal
	}
}

func coinbaseProChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "matches"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "level2"
	case domain.ChannelKindL3Event:
		name = "full"
	default:
		return "", fmt.Errorf("coinbase_pro: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// CoinbasePro builds the Adapter for one crawl request against Coinbase
// Pro's (now Coinbase Exchange) public WebSocket feed, spot only.
func CoinbasePro(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("coinbase_pro", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "coinbase_pro",
		MarketType:           domain.Spot,
		URL:                  coinbaseProWebsocketURL,
		SubscribeCmdBuilder:  coinbaseProSubscribeCmd,
		Classify:             coinbaseProClassify,
		ChannelFor:           coinbaseProChannelFor,
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
