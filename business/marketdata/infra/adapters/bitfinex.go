package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const bitfinexWebsocketURL = "wss://api-pub.bitfinex.com/ws/2"

func bitfinexSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	event := "subscribe"
	if !subscribe {
		event = "unsubscribe"
	}
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		name, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("bitfinex: malformed channel %q", string(ch))
		}
		msg := map[string]string{
			"event":   event,
			"channel": name,
			"symbol":  pair,
		}
		if name == "book_r0" {
			// The raw (per-order) book dialect is still the "book" channel on
			// the wire; prec "R0" is what selects the unaggregated L3 feed.
			msg["channel"] = "book"
			msg["prec"] = "R0"
			msg["len"] = "250"
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

// bitfinexClassify follows Bitfinex's two wire shapes: a JSON object is
// always control traffic (subscribe ack, error, or "hb" heartbeat object
// nested in the event field); an array is always market data, keyed by the
// channel ID the worker does not track, so every array frame passes Normal.
func bitfinexClassify(f domain.Frame) domain.Classification {
	s := string(f.Data)
	if len(s) > 0 && s[0] == '[' {
		return domain.Normal
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	event, ok := obj["event"]
	if !ok {
		return domain.Misc
	}
	switch string(event) {
	case `"error"`:
		return domain.Error
	default:
		return domain.Misc
	}
}

func bitfinexChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "trades"
	case domain.ChannelKindTicker:
		name = "ticker"
	case domain.ChannelKindL2Event:
		name = "book"
	case domain.ChannelKindL3Event:
		name = "book_r0"
	default:
		return "", fmt.Errorf("bitfinex: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + "t" + pair), nil
}

// Bitfinex builds the Adapter for one crawl request against Bitfinex spot.
func Bitfinex(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	if req.MarketType != domain.Spot {
		return domain.Adapter{}, nil, errUnsupported("bitfinex", req.MarketType, req.MessageType)
	}
	a := domain.Adapter{
		Exchange:             "bitfinex",
		MarketType:           domain.Spot,
		URL:                  bitfinexWebsocketURL,
		SubscribeCmdBuilder:  bitfinexSubscribeCmd,
		Classify:             bitfinexClassify,
		ChannelFor:           bitfinexChannelFor,
		MaxSubsPerConnection: 30,
		SendInterval:         200 * time.Millisecond,
		ConnectInterval:      time.Second,
	}
	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}
