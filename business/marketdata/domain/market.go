// Package domain holds the pure-data types of the market-data ingestion
// engine: messages, market/channel taxonomy, subscriptions and the adapter
// descriptor contract. Nothing in this package talks to a network or clock.
package domain

import "fmt"

// MarketType is the contract flavor traded on a venue.
type MarketType int

const (
	MarketTypeUnknown MarketType = iota
	Spot
	InverseFuture
	LinearFuture
	InverseSwap
	LinearSwap
	EuropeanOption
	AmericanOption
)

func (m MarketType) String() string {
	switch m {
	case Spot:
		return "spot"
	case InverseFuture:
		return "inverse_future"
	case LinearFuture:
		return "linear_future"
	case InverseSwap:
		return "inverse_swap"
	case LinearSwap:
		return "linear_swap"
	case EuropeanOption:
		return "european_option"
	case AmericanOption:
		return "american_option"
	default:
		return "unknown"
	}
}

// ParseMarketType maps the CLI/config string form of a market type to its
// MarketType constant.
func ParseMarketType(s string) (MarketType, error) {
	switch s {
	case "spot":
		return Spot, nil
	case "inverse_future":
		return InverseFuture, nil
	case "linear_future":
		return LinearFuture, nil
	case "inverse_swap":
		return InverseSwap, nil
	case "linear_swap":
		return LinearSwap, nil
	case "european_option":
		return EuropeanOption, nil
	case "american_option":
		return AmericanOption, nil
	default:
		return MarketTypeUnknown, fmt.Errorf("unknown market type %q", s)
	}
}

// MessageType is the kind of normalized payload delivered to the sink.
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	Trade
	L2Event
	L2TopK
	L2Snapshot
	L3Event
	L3Snapshot
	BBO
	Ticker
	Candlestick
	FundingRate
	Other
)

func (m MessageType) String() string {
	switch m {
	case Trade:
		return "trade"
	case L2Event:
		return "l2_event"
	case L2TopK:
		return "l2_topk"
	case L2Snapshot:
		return "l2_snapshot"
	case L3Event:
		return "l3_event"
	case L3Snapshot:
		return "l3_snapshot"
	case BBO:
		return "bbo"
	case Ticker:
		return "ticker"
	case Candlestick:
		return "candlestick"
	case FundingRate:
		return "funding_rate"
	default:
		return "other"
	}
}

// ParseMessageType maps the CLI/config string form of a message type to its
// MessageType constant.
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "trade":
		return Trade, nil
	case "l2_event":
		return L2Event, nil
	case "l2_topk":
		return L2TopK, nil
	case "l2_snapshot":
		return L2Snapshot, nil
	case "l3_event":
		return L3Event, nil
	case "l3_snapshot":
		return L3Snapshot, nil
	case "bbo":
		return BBO, nil
	case "ticker":
		return Ticker, nil
	case "candlestick":
		return Candlestick, nil
	case "funding_rate":
		return FundingRate, nil
	default:
		return MessageTypeUnknown, fmt.Errorf("unknown message type %q", s)
	}
}
