package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestZbgSpotUsesKlineHost(t *testing.T) {
	a, channels, err := Zbg(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.Trade, Pairs: []string{"BTC_USDT"}})
	require.NoError(t, err)
	require.Equal(t, zbgSpotWebsocketURL, a.URL)
	require.Equal(t, []domain.Channel{"deal:BTC_USDT"}, channels)
}

func TestZbgSpotSubscribeCmdShape(t *testing.T) {
	cmds, err := zbgSubscribeCmd([]domain.Channel{"deal:BTC_USDT"}, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"action":"deal","symbol":"BTC_USDT"}`, cmds[0])
}

func TestZbgInverseSwapUsesFuturesHost(t *testing.T) {
	a, channels, err := Zbg(domain.BuildRequest{MarketType: domain.InverseSwap, MessageType: domain.Trade, Pairs: []string{"1000001"}})
	require.NoError(t, err)
	require.Equal(t, zbgSwapWebsocketURL, a.URL)
	require.Equal(t, []domain.Channel{"future_tick:1000001"}, channels)
}

func TestZbgLinearSwapUsesFuturesHost(t *testing.T) {
	a, _, err := Zbg(domain.BuildRequest{MarketType: domain.LinearSwap, MessageType: domain.Trade, Pairs: []string{"1000000"}})
	require.NoError(t, err)
	require.Equal(t, zbgSwapWebsocketURL, a.URL)
}

func TestZbgSwapSubscribeCmdShape(t *testing.T) {
	cmds, err := zbgSwapSubscribeCmd([]domain.Channel{"future_tick:1000001"}, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"action":"sub","topic":"future_tick-1000001"}`, cmds[0])
}

func TestZbgSwapSubscribeCmdUnsub(t *testing.T) {
	cmds, err := zbgSwapSubscribeCmd([]domain.Channel{"future_tick:1000001"}, false)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"action":"unsub","topic":"future_tick-1000001"}`, cmds[0])
}

func TestZbgUnsupportedMarketType(t *testing.T) {
	_, _, err := Zbg(domain.BuildRequest{MarketType: domain.EuropeanOption, MessageType: domain.Trade, Pairs: []string{"BTC_USDT"}})
	require.Error(t, err)
}
