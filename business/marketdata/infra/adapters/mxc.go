package adapters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const (
	mxcSpotWebsocketURL = "wss://wbs.mxc.com/socket.io/?EIO=3&transport=websocket"
	mxcSwapWebsocketURL = "wss://contract.mxc.com/ws"
	mxcSocketIOPrefix   = "42"
)

// mxcSpotSubscribeCmd renders MXC spot's socket.io-wrapped command:
// 42["sub.<channel>",{"symbol":"<pair>"}]. A raw channel already starting
// with '[' is assumed to be a pre-built socket.io payload body and is only
// given the "42" prefix.
func mxcSpotSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	for _, ch := range channels {
		s := string(ch)
		if strings.HasPrefix(s, "[") {
			cmds = append(cmds, mxcSocketIOPrefix+s)
			continue
		}
		channel, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("mxc spot: malformed channel %q", s)
		}
		cmd := "sub"
		name := channel
		if strings.HasPrefix(channel, "get.") {
			parts := strings.SplitN(channel, ".", 2)
			cmd, name = parts[0], parts[1]
		} else if !subscribe {
			cmd = "unsub"
		}
		cmds = append(cmds, fmt.Sprintf(`%s["%s.%s",{"symbol":"%s"}]`, mxcSocketIOPrefix, cmd, name, pair))
	}
	return cmds, nil
}

// mxcSwapSubscribeCmd renders MXC swap's plain-JSON command:
// {"method":"sub.<channel>","param":{"symbol":"<pair>"}}.
func mxcSwapSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		channel, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("mxc swap: malformed channel %q", string(ch))
		}
		verb := "sub"
		if !subscribe {
			verb = "unsub"
		}
		cmds = append(cmds, fmt.Sprintf(`{"method":"%s.%s","param":{"symbol":"%s"}}`, verb, channel, pair))
	}
	return cmds, nil
}

// mxcSpotClassify follows the original socket.io handshake framing:
// bare "1" is the server closing the channel (Reconnect), "3" is a
// socket.io pong, "0{...}" and "40" are handshake bookkeeping, and anything
// starting with "42" carries an actual push payload.
func mxcSpotClassify(f domain.Frame) domain.Classification {
	s := string(f.Data)
	switch {
	case s == "1":
		return domain.Reconnect
	case s == "3":
		return domain.Pong
	case strings.HasPrefix(s, "0{"), s == "40":
		return domain.Misc
	case strings.HasPrefix(s, "42"):
		return domain.Normal
	default:
		return domain.Misc
	}
}

// mxcSwapClassify inspects the {"channel":...,"data":...,"ts":...} envelope
// every MXC swap push uses; "rs.error" is fatal, "pong" is a keepalive ack,
// and a push.-prefixed channel with a symbol is real market data.
func mxcSwapClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	channelRaw, hasChannel := obj["channel"]
	_, hasData := obj["data"]
	_, hasTs := obj["ts"]
	if !hasChannel || !hasData || !hasTs {
		return domain.Misc
	}

	var channel string
	_ = json.Unmarshal(channelRaw, &channel)
	switch channel {
	case "pong":
		return domain.Pong
	case "rs.error":
		return domain.Error
	default:
		if _, ok := obj["symbol"]; ok && strings.HasPrefix(channel, "push.") {
			return domain.Normal
		}
		return domain.Misc
	}
}

func mxcSpotChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "symbol"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindBBO:
		name = "bbo"
	case domain.ChannelKindL2Event:
		name = "depth"
	case domain.ChannelKindL2Snapshot:
		name = "depth.full"
	default:
		return "", fmt.Errorf("mxc spot: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

func mxcSwapChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "deal"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "depth"
	case domain.ChannelKindFundingRate:
		name = "funding.rate"
	default:
		return "", fmt.Errorf("mxc swap: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

// Mxc builds the Adapter for one crawl request against MXC. Spot rides a
// socket.io transport with a 5s "2"/"3" ping/pong; swap rides plain JSON
// with a 60s client-initiated ping.
func Mxc(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "mxc",
		MarketType:           req.MarketType,
		MaxSubsPerConnection: 50,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}

	switch req.MarketType {
	case domain.Spot:
		a.URL = mxcSpotWebsocketURL
		a.SubscribeCmdBuilder = mxcSpotSubscribeCmd
		a.Classify = mxcSpotClassify
		a.ChannelFor = mxcSpotChannelFor
		a.Keepalive = &domain.Keepalive{Interval: 5 * time.Second, Payload: "2"}
	case domain.InverseSwap, domain.LinearSwap:
		a.URL = mxcSwapWebsocketURL
		a.SubscribeCmdBuilder = mxcSwapSubscribeCmd
		a.Classify = mxcSwapClassify
		a.ChannelFor = mxcSwapChannelFor
		a.Keepalive = &domain.Keepalive{Interval: 60 * time.Second, Payload: `{"method":"ping"}`}
	default:
		return domain.Adapter{}, nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
	}

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
