package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestKucoinChannelForL3Event(t *testing.T) {
	ch, err := kucoinChannelFor(domain.ChannelKindL3Event, "BTC-USDT")
	require.NoError(t, err)
	require.Equal(t, domain.Channel("/market/level3:BTC-USDT"), ch)
}

func TestKucoinL3EventCrawlBuilds(t *testing.T) {
	_, channels, err := Kucoin(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.L3Event, Pairs: []string{"BTC-USDT"}})
	require.NoError(t, err)
	require.Equal(t, []domain.Channel{"/market/level3:BTC-USDT"}, channels)
}
