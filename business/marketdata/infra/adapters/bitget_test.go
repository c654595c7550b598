package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestBitgetSpotUsesSpotHostAndInstType(t *testing.T) {
	a, channels, err := Bitget(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.Trade, Pairs: []string{"BTCUSDT"}})
	require.NoError(t, err)
	require.Equal(t, bitgetWebsocketURL, a.URL)

	cmds, err := a.SubscribeCmdBuilder(channels, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"op":"subscribe","args":[{"instType":"sp","channel":"trade","instId":"BTCUSDT"}]}`, cmds[0])
}

func TestBitgetLinearSwapUsesMixHostAndInstType(t *testing.T) {
	a, channels, err := Bitget(domain.BuildRequest{MarketType: domain.LinearSwap, MessageType: domain.Trade, Pairs: []string{"BTCUSDT_UMCBL"}})
	require.NoError(t, err)
	require.Equal(t, bitgetSwapWebsocketURL, a.URL)

	cmds, err := a.SubscribeCmdBuilder(channels, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"op":"subscribe","args":[{"instType":"mc","channel":"trade","instId":"BTCUSDT_UMCBL"}]}`, cmds[0])
}

func TestBitgetInverseSwapUsesMixHost(t *testing.T) {
	a, _, err := Bitget(domain.BuildRequest{MarketType: domain.InverseSwap, MessageType: domain.Trade, Pairs: []string{"BTCUSD_DMCBL"}})
	require.NoError(t, err)
	require.Equal(t, bitgetSwapWebsocketURL, a.URL)
}

func TestBitgetUnsupportedMarketType(t *testing.T) {
	_, _, err := Bitget(domain.BuildRequest{MarketType: domain.EuropeanOption, MessageType: domain.Trade, Pairs: []string{"BTCUSDT"}})
	require.Error(t, err)
}
