package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const binanceWebsocketURL = "wss://stream.binance.com:9443/stream"
const binanceOptionWebsocketURL = "wss://stream.opsnest.com/stream"

// binanceSubscribeCmd renders Binance's JSON-RPC-flavored subscribe frame.
// Every non-pass-through channel in one batch rides a single SUBSCRIBE
// command; pass-through channels (raw caller JSON) ride unmodified.
func binanceSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	var raw []string
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		raw = append(raw, string(ch))
	}

	var cmds []string
	cmds = append(cmds, passthrough...)
	if len(raw) > 0 {
		method := "SUBSCRIBE"
		if !subscribe {
			method = "UNSUBSCRIBE"
		}
		body, err := json.Marshal(struct {
			ID     int      `json:"id"`
			Method string   `json:"method"`
			Params []string `json:"params"`
		}{ID: 9527, Method: method, Params: raw})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

// binanceClassify distinguishes the {"id":9527} ack, the {"event":"pong"}
// keepalive reply, and an {"error":...} frame from a real stream payload.
func binanceClassify(f domain.Frame) domain.Classification {
	s := string(f.Data)
	if s == `{"id":9527}` {
		return domain.Misc
	}
	if s == `{"event":"pong"}` {
		return domain.Pong
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if _, ok := obj["error"]; ok {
		return domain.Error
	}
	if result, ok := obj["result"]; ok && string(result) == "null" {
		return domain.Misc
	}
	if _, hasStream := obj["stream"]; hasStream {
		if _, hasData := obj["data"]; hasData {
			return domain.Normal
		}
	}
	return domain.Misc
}

func binanceChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var suffix string
	switch kind {
	case domain.ChannelKindTrade:
		suffix = "trade"
	case domain.ChannelKindTicker:
		suffix = "ticker"
	case domain.ChannelKindBBO:
		suffix = "bookTicker"
	case domain.ChannelKindL2Event:
		suffix = "depth@100ms"
	case domain.ChannelKindL2TopK:
		suffix = "depth10"
	default:
		return "", fmt.Errorf("binance: unsupported channel kind %d", kind)
	}
	return domain.Channel(fmt.Sprintf("%s@%s", pair, suffix)), nil
}

var binanceCandlestickIntervals = map[int]string{
	60:     "1m",
	300:    "5m",
	900:    "15m",
	1800:   "30m",
	3600:   "1h",
	14400:  "4h",
	86400:  "1d",
	604800: "1w",
}

func binanceCandlestickChannel(pair string, intervalSeconds int) (domain.Channel, error) {
	interval, ok := binanceCandlestickIntervals[intervalSeconds]
	if !ok {
		return "", fmt.Errorf("binance: unsupported candlestick interval %ds", intervalSeconds)
	}
	return domain.Channel(fmt.Sprintf("%s@kline_%s", pair, interval)), nil
}

// Binance builds the Adapter for one crawl request against Binance. Spot
// and linear/inverse swap/future markets share the combined-stream endpoint
// and JSON-RPC subscribe dialect; option markets use a separate endpoint and
// a client-initiated ping every 4 minutes.
func Binance(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "binance",
		MarketType:           req.MarketType,
		URL:                  binanceWebsocketURL,
		SubscribeCmdBuilder:  binanceSubscribeCmd,
		Classify:             binanceClassify,
		ChannelFor:           binanceChannelFor,
		CandlestickChannel:   binanceCandlestickChannel,
		MaxSubsPerConnection: 200,
		SendInterval:         200 * time.Millisecond,
		ConnectInterval:      time.Second,
	}

	if req.MarketType == domain.EuropeanOption || req.MarketType == domain.AmericanOption {
		a.URL = binanceOptionWebsocketURL
		a.Keepalive = &domain.Keepalive{Interval: 240 * time.Second, Payload: `{"event":"ping"}`}
	}

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}

// channelsForRequest resolves the Channel list for req against an already
// built Adapter, used by every venue's factory to avoid repeating the
// kind-from-MessageType and candlestick-vs-plain dispatch.
func channelsForRequest(a domain.Adapter, req domain.BuildRequest) ([]domain.Channel, error) {
	pairs := wildcardIfEmpty(req.Pairs)

	if req.MessageType == domain.Candlestick {
		if a.CandlestickChannel == nil {
			return nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
		}
		out := make([]domain.Channel, 0, len(pairs))
		for _, p := range pairs {
			ch, err := a.CandlestickChannel(p, req.IntervalSeconds)
			if err != nil {
				return nil, err
			}
			out = append(out, ch)
		}
		return out, nil
	}

	kind, err := channelKindFor(req.MessageType)
	if err != nil {
		return nil, err
	}
	if a.ChannelFor == nil {
		return nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
	}
	out := make([]domain.Channel, 0, len(pairs))
	for _, p := range pairs {
		ch, err := a.ChannelFor(kind, p)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func channelKindFor(mt domain.MessageType) (domain.ChannelKind, error) {
	switch mt {
	case domain.Trade:
		return domain.ChannelKindTrade, nil
	case domain.L2Event:
		return domain.ChannelKindL2Event, nil
	case domain.L2TopK:
		return domain.ChannelKindL2TopK, nil
	case domain.L2Snapshot:
		return domain.ChannelKindL2Snapshot, nil
	case domain.L3Event:
		return domain.ChannelKindL3Event, nil
	case domain.L3Snapshot:
		return domain.ChannelKindL3Snapshot, nil
	case domain.BBO:
		return domain.ChannelKindBBO, nil
	case domain.Ticker:
		return domain.ChannelKindTicker, nil
	case domain.FundingRate:
		return domain.ChannelKindFundingRate, nil
	default:
		return domain.ChannelKindUnknown, fmt.Errorf("unsupported message type %s", mt)
	}
}
