package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const (
	zbgSpotWebsocketURL = "wss://kline.zbg.com/websocket"
	zbgSwapWebsocketURL = "wss://futures.zbg.com/ws" // both inverse and linear swap contracts share this host
)

// zbgSubscribeCmd renders ZBG's action/symbol-per-channel frame:
// {"action":"<channel>","symbol":"<pair>"}.
func zbgSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("zbg: malformed channel %q", string(ch))
		}
		action := name
		if !subscribe {
			action = "un" + name
		}
		body, err := json.Marshal(map[string]string{"action": action, "symbol": pair})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

// zbgSwapSubscribeCmd renders ZBG's swap dialect: {"action":"sub",
// "topic":"<channel>-<pair>"}, distinct from the spot client's
// action/symbol shape.
func zbgSwapSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	action := "sub"
	if !subscribe {
		action = "unsub"
	}
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("zbg: malformed channel %q", string(ch))
		}
		body, err := json.Marshal(map[string]string{"action": action, "topic": name + "-" + pair})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func zbgClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if _, ok := obj["errCode"]; ok {
		return domain.Error
	}
	if _, ok := obj["datas"]; ok {
		return domain.Normal
	}
	return domain.Misc
}

func zbgChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "deal"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "depth"
	default:
		return "", fmt.Errorf("zbg: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// zbgSwapChannelFor mirrors zbgChannelFor for the swap dialect; the trade
// topic name "future_tick" is grounded on ZbgSwapWSClient's raw subscribe
// example, the others follow the spot client's naming absent a clearer
// reference.
func zbgSwapChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "future_tick"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "depth"
	default:
		return "", fmt.Errorf("zbg: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Zbg builds the Adapter for one crawl request against ZBG: spot uses the
// kline host and action/symbol dialect, inverse and linear swap share the
// futures host and a sub/topic dialect.
func Zbg(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "zbg",
		MarketType:           req.MarketType,
		Classify:             zbgClassify,
		Keepalive:            &domain.Keepalive{Interval: 20 * time.Second, Payload: `{"action":"ping"}`},
		MaxSubsPerConnection: 0,
		SendInterval:         200 * time.Millisecond,
		ConnectInterval:      time.Second,
	}

	switch req.MarketType {
	case domain.Spot:
		a.URL = zbgSpotWebsocketURL
		a.SubscribeCmdBuilder = zbgSubscribeCmd
		a.ChannelFor = zbgChannelFor
	case domain.InverseSwap, domain.LinearSwap:
		a.URL = zbgSwapWebsocketURL
		a.SubscribeCmdBuilder = zbgSwapSubscribeCmd
		a.ChannelFor = zbgSwapChannelFor
	default:
		return domain.Adapter{}, nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
	}

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
