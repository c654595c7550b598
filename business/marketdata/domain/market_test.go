package domain

import "testing"

func TestParseMarketType(t *testing.T) {
	cases := map[string]MarketType{
		"spot":            Spot,
		"inverse_future":  InverseFuture,
		"linear_future":   LinearFuture,
		"inverse_swap":    InverseSwap,
		"linear_swap":     LinearSwap,
		"european_option": EuropeanOption,
		"american_option": AmericanOption,
	}
	for s, want := range cases {
		got, err := ParseMarketType(s)
		if err != nil {
			t.Errorf("ParseMarketType(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseMarketType(%q) = %v, want %v", s, got, want)
		}
		if got.String() != s {
			t.Errorf("MarketType(%v).String() = %q, want %q", got, got.String(), s)
		}
	}

	if _, err := ParseMarketType("bogus"); err == nil {
		t.Error("expected error for unknown market type")
	}
}

func TestParseMessageType(t *testing.T) {
	cases := map[string]MessageType{
		"trade":        Trade,
		"l2_event":     L2Event,
		"l2_topk":      L2TopK,
		"l2_snapshot":  L2Snapshot,
		"l3_event":     L3Event,
		"l3_snapshot":  L3Snapshot,
		"bbo":          BBO,
		"ticker":       Ticker,
		"candlestick":  Candlestick,
		"funding_rate": FundingRate,
	}
	for s, want := range cases {
		got, err := ParseMessageType(s)
		if err != nil {
			t.Errorf("ParseMessageType(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseMessageType(%q) = %v, want %v", s, got, want)
		}
	}

	if _, err := ParseMessageType("bogus"); err == nil {
		t.Error("expected error for unknown message type")
	}
}
