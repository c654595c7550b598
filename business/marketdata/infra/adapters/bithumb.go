package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const bithumbWebsocketURL = "wss://pubwss.bithumb.com/pub/ws"

// bithumbSubscribeCmd renders {"type":"<channel>","symbols":[...]}, one
// frame per distinct channel type.
func bithumbSubscribeCmd(channels []domain.Channel, _ bool) ([]string, error) {
	byType := map[string][]string{}
	var order []string
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("bithumb: malformed channel %q", string(ch))
		}
		if _, seen := byType[name]; !seen {
			order = append(order, name)
		}
		byType[name] = append(byType[name], pair)
	}

	cmds := passthrough
	for _, name := range order {
		body, err := json.Marshal(map[string]interface{}{"type": name, "symbols": byType[name]})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func bithumbClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	status, hasStatus := obj["status"]
	if hasStatus && string(status) != `"0000"` {
		return domain.Error
	}
	if _, ok := obj["content"]; ok {
		return domain.Normal
	}
	return domain.Misc
}

func bithumbChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	switch kind {
	case domain.ChannelKindTrade:
		return domain.Channel("transaction" + domain.ChannelPairDelimiter + pair), nil
	case domain.ChannelKindTicker:
		return domain.Channel("ticker" + domain.ChannelPairDelimiter + pair), nil
	case domain.ChannelKindL2Event:
		return domain.Channel("orderbookdepth" + domain.ChannelPairDelimiter + pair), nil
	default:
		return "", fmt.Errorf("bithumb: unsupported channel kind %d", kind)
	}
}

// Bithumb builds the Adapter for one crawl request against Bithumb spot.
func Bithumb(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("bithumb", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "bithumb",
		MarketType:           domain.Spot,
		URL:                  bithumbWebsocketURL,
		SubscribeCmdBuilder:  bithumbSubscribeCmd,
		Classify:             bithumbClassify,
		ChannelFor:           bithumbChannelFor,
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
