package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

const (
	huobiSpotWebsocketURL      = "wss://api.huobi.pro/ws"
	huobiSpotFeedWebsocketURL  = "wss://api.huobi.pro/feed" // incremental MBP (L2 event) feed
	huobiFutureWebsocketURL    = "wss://www.hbdm.com/ws"
	huobiInverseSwapURL        = "wss://api.hbdm.com/swap-ws"
	huobiLinearSwapURL         = "wss://api.hbdm.com/linear-swap-ws"
	huobiInverseSwapNotifyURL  = "wss://api.hbdm.com/swap-notification"
	huobiLinearSwapNotifyURL   = "wss://api.hbdm.com/linear-swap-notification"
	huobiOptionWebsocketURL    = "wss://api.hbdm.com/option-ws"
)

// huobiSubscribeCmd renders Huobi's {"sub": "...", "id": "..."} frame, one
// per channel (Huobi does not batch multiple channels in a single frame).
func huobiSubscribeCmd(channels []domain.Channel, subscribe bool) ([]string, error) {
	cmds := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch.IsPassThrough() {
			cmds = append(cmds, string(ch))
			continue
		}
		key := "sub"
		if !subscribe {
			key = "unsub"
		}
		body, err := json.Marshal(map[string]string{key: string(ch), "id": "id1"})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, string(body))
	}
	return cmds, nil
}

// huobiClassify recognizes Huobi's own heartbeat ("ping"/"pong") and op-based
// funding-rate acks before falling through to "it's a normal tick".
func huobiClassify(f domain.Frame) domain.Classification {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return domain.Misc
	}
	if _, ok := obj["ping"]; ok {
		return domain.Misc // dropped; no per-ping echo is sent, only the adapter's periodic Keepalive payload
	}
	if _, ok := obj["pong"]; ok {
		return domain.Pong
	}
	if status, ok := obj["status"]; ok && string(status) == `"error"` {
		return domain.Error
	}
	if op, ok := obj["op"]; ok && string(op) == `"sub"` {
		return domain.Misc
	}
	if _, ok := obj["subbed"]; ok {
		return domain.Misc
	}
	return domain.Normal
}

func huobiChannelFor(kind domain.ChannelKind, pair string) (domain.Channel, error) {
	switch kind {
	case domain.ChannelKindTrade:
		return domain.Channel(fmt.Sprintf("market.%s.trade.detail", pair)), nil
	case domain.ChannelKindTicker:
		return domain.Channel(fmt.Sprintf("market.%s.detail", pair)), nil
	case domain.ChannelKindBBO:
		return domain.Channel(fmt.Sprintf("market.%s.bbo", pair)), nil
	case domain.ChannelKindL2Event:
		return domain.Channel(fmt.Sprintf("market.%s.mbp.150", pair)), nil
	case domain.ChannelKindL2Snapshot:
		return domain.Channel(fmt.Sprintf("market.%s.depth.step0", pair)), nil
	case domain.ChannelKindFundingRate:
		return domain.Channel(fmt.Sprintf(`{"topic":"public.%s.funding_rate","op":"sub"}`, pair)), nil
	default:
		return "", fmt.Errorf("huobi: unsupported channel kind %d", kind)
	}
}

var huobiCandlestickIntervals = map[int]string{
	60:     "1min",
	300:    "5min",
	900:    "15min",
	1800:   "30min",
	3600:   "60min",
	14400:  "4hour",
	86400:  "1day",
	604800: "1week",
}

func huobiCandlestickChannel(pair string, intervalSeconds int) (domain.Channel, error) {
	interval, ok := huobiCandlestickIntervals[intervalSeconds]
	if !ok {
		return "", fmt.Errorf("huobi: unsupported candlestick interval %ds", intervalSeconds)
	}
	return domain.Channel(fmt.Sprintf("market.%s.kline.%s", pair, interval)), nil
}

// Huobi builds the Adapter for one crawl request against Huobi. Funding
// rate crawls route through the swap-notification host instead of the
// regular market-data host, per market type; L2 event (incremental mbp) on
// spot uses the separate /feed host instead of the regular market-data ws.
func Huobi(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:             "huobi",
		MarketType:           req.MarketType,
		URL:                  huobiURLFor(req.MarketType),
		SubscribeCmdBuilder:  huobiSubscribeCmd,
		Classify:             huobiClassify,
		ChannelFor:           huobiChannelFor,
		CandlestickChannel:   huobiCandlestickChannel,
		Keepalive:            &domain.Keepalive{Interval: 5 * time.Second, Payload: `{"pong": 0}`},
		MaxSubsPerConnection: 50,
		SendInterval:         100 * time.Millisecond,
		ConnectInterval:      500 * time.Millisecond,
	}

	if req.MessageType == domain.FundingRate {
		switch req.MarketType {
		case domain.InverseSwap:
			a.URL = huobiInverseSwapNotifyURL
		case domain.LinearSwap:
			a.URL = huobiLinearSwapNotifyURL
		default:
			return domain.Adapter{}, nil, errUnsupported(a.Exchange, req.MarketType, req.MessageType)
		}
	}
	if req.MessageType == domain.L2Event && req.MarketType == domain.Spot {
		a.URL = huobiSpotFeedWebsocketURL
	}

	channels, err := channelsForRequest(a, req)
	if err != nil {
		return domain.Adapter{}, nil, err
	}
	return a, channels, nil
}

func huobiURLFor(mt domain.MarketType) string {
	switch mt {
	case domain.Spot:
		return huobiSpotWebsocketURL
	case domain.InverseFuture:
		return huobiFutureWebsocketURL
	case domain.InverseSwap:
		return huobiInverseSwapURL
	case domain.LinearSwap:
		return huobiLinearSwapURL
	case domain.EuropeanOption:
		return huobiOptionWebsocketURL
	default:
		return huobiSpotWebsocketURL
	}
}
