package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestOkexMarketTypeFromPair(t *testing.T) {
	cases := []struct {
		pair string
		want domain.MarketType
	}{
		{"BTC-USDT", domain.Spot},
		{"BTC-USDT-210625", domain.LinearFuture},
		{"BTC-USDT-SWAP", domain.LinearSwap},
		{"BTC-USD-210625-72000-C", domain.EuropeanOption},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, okexMarketTypeFromPair(tc.pair), tc.pair)
	}
}
