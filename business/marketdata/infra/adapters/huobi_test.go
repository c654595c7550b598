package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestHuobiFundingRateChannel(t *testing.T) {
	a, channels, err := Huobi(domain.BuildRequest{
		MarketType:  domain.InverseSwap,
		MessageType: domain.FundingRate,
		Pairs:       []string{"BTC-USD"},
	})
	require.NoError(t, err)
	require.Equal(t, huobiInverseSwapNotifyURL, a.URL)
	require.Equal(t, "wss://api.hbdm.com/swap-notification", a.URL)
	require.Len(t, channels, 1)
	require.Equal(t, domain.Channel(`{"topic":"public.BTC-USD.funding_rate","op":"sub"}`), channels[0])
}

func TestHuobiFundingRateUnsupportedOnSpot(t *testing.T) {
	_, _, err := Huobi(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.FundingRate, Pairs: []string{"btcusdt"}})
	require.Error(t, err)
}

func TestHuobiSpotL2EventUsesFeedHost(t *testing.T) {
	a, _, err := Huobi(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.L2Event, Pairs: []string{"btcusdt"}})
	require.NoError(t, err)
	require.Equal(t, huobiSpotFeedWebsocketURL, a.URL)
}

func TestHuobiSpotL2SnapshotUsesRegularHost(t *testing.T) {
	a, _, err := Huobi(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.L2Snapshot, Pairs: []string{"btcusdt"}})
	require.NoError(t, err)
	require.Equal(t, huobiSpotWebsocketURL, a.URL)
}
