package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestGateInverseSwapUsesBTCMarginedHost(t *testing.T) {
	a, _, err := Gate(domain.BuildRequest{MarketType: domain.InverseSwap, MessageType: domain.Trade, Pairs: []string{"BTC_USD"}})
	require.NoError(t, err)
	require.Equal(t, gateInverseFuturesWebsocketURL, a.URL)
}

func TestGateLinearSwapUsesUSDTMarginedHost(t *testing.T) {
	a, _, err := Gate(domain.BuildRequest{MarketType: domain.LinearSwap, MessageType: domain.Trade, Pairs: []string{"BTC_USDT"}})
	require.NoError(t, err)
	require.Equal(t, gateFuturesWebsocketURL, a.URL)
}

func TestGateUnsupportedMarketType(t *testing.T) {
	_, _, err := Gate(domain.BuildRequest{MarketType: domain.EuropeanOption, MessageType: domain.Trade, Pairs: []string{"BTC_USDT"}})
	require.Error(t, err)
}
