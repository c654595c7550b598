package adapters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const okexWebsocketURL = "wss://ws.okex.com:8443/ws/v5/public"

// okexMarketTypeFromPair infers a pair's market type from its dash-count
// convention: a "-SWAP" suffix is a swap, one dash is spot, two dashes is a
// dated future (the trailing 6 digits are a YYMMDD expiry), and anything
// else is an option (trailing "-C"/"-P").
func okexMarketTypeFromPair(pair string) domain.MarketType {
	if strings.HasSuffix(pair, "-SWAP") {
		return domain.LinearSwap
	}
	switch strings.Count(pair, "-") {
	case 1:
		return domain.Spot
	case 2:
		return domain.LinearFuture
	default:
		return domain.EuropeanOption
	}
}

// okexSubscribeCmd batches every channel into one {"op":"subscribe","args":
// [...]} frame, OKEx's v5 convention; each arg names {"channel":...,
// "instId":...}.
func okexSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	var args []json.RawMessage
	var passthrough []string
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, string(ch))
			continue
		}
		channel, pair, ok := domain.SplitChannelPair(ch)
		if !ok {
			return nil, fmt.Errorf("okex: malformed channel %q", string(ch))
		}
		arg, err := json.Marshal(map[string]string{"channel": channel, "instId": pair})
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	cmds := passthrough
	if len(args) > 0 {
		op := "subscribe"
		if !subscribe {
			op = "unsubscribe"
		}
		body, err := json.Marshal(struct {
			Op   string            `json:"op"`
			Args []json.RawMessage `json:"args"`
		}{Op: op, Args: args})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

func okexClassify(f domain.Frame) domain.Classification {
	s := string(f.Data)
	if s == "pong" {
		return domain.Pong
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if event, ok := obj["event"]; ok {
		if string(event) == `"error"` {
			return domain.Error
		}
		return domain.Misc // "subscribe"/"unsubscribe" acks
	}
	if _, ok := obj["data"]; ok {
		return domain.Normal
	}
	return domain.Misc
}

func okexChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	var name string
	switch kind {
	case domain.ChannelKindTrade:
		name = "trades"
	case domain.ChannelKindTicker:
		name = "tickers"
	case domain.ChannelKindBBO:
		name = "bbo-tbt"
	case domain.ChannelKindL2Event:
		name = "books"
	case domain.ChannelKindL2TopK:
		name = "books5"
	case domain.ChannelKindFundingRate:
		name = "funding-rate"
	default:
		return "", fmt.Errorf("okex: unsupported channel kind %d", kind)
	}
	return domain.Channel(name + domain.ChannelPairDelimiter + pair), nil
}

var okexCandlestickIntervals = map[int]string{
	60:    "1m",
	180:   "3m",
	300:   "5m",
	900:   "15m",
	1800:  "30m",
	3600:  "1H",
	14400: "4H",
	86400: "1D",
}

func okexCandlestickChannel(pair string, intervalSeconds int) (domain.Channel, error) {
	interval, ok := okexCandlestickIntervals[intervalSeconds]
	if !ok {
		return "", fmt.Errorf("okex: unsupported candlestick interval %ds", intervalSeconds)
	}
	return domain.Channel(fmt.Sprintf("candle%s%s%s", interval, domain.ChannelPairDelimiter, pair)), nil
}

// Okex builds the Adapter for one crawl request against OKEx. All market
// types share one v5 public endpoint and subscribe dialect; when the request
// has no explicit MarketType, the first pair's shape decides it via
// okexMarketTypeFromPair.
func Okex(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	marketType := req.MarketType
	if marketType == domain.MarketTypeUnknown && len(req.Pairs) > 0 {
		marketType = okexMarketTypeFromPair(req.Pairs[0])
	}

	a := domain.Adapter{
		Exchange:             "okex",
		MarketType:           marketType,
		URL:                  okexWebsocketURL,
		SubscribeCmdBuilder:  okexSubscribeCmd,
		Classify:             okexClassify,
		ChannelFor:           okexChannelFor,
		CandlestickChannel:   okexCandlestickChannel,
		Keepalive:            &domain.Keepalive{Interval: 20 * time.Second, Payload: "ping"},
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
