package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestBitstampChannelForL3Event(t *testing.T) {
	ch, err := bitstampChannelFor(domain.ChannelKindL3Event, "btcusd")
	require.NoError(t, err)
	require.Equal(t, domain.Channel("detail_order_book_btcusd"), ch)
}

func TestBitstampL3EventCrawlBuilds(t *testing.T) {
	_, channels, err := Bitstamp(domain.BuildRequest{MarketType: domain.Spot, MessageType: domain.L3Event, Pairs: []string{"btcusd"}})
	require.NoError(t, err)
	require.Equal(t, []domain.Channel{"detail_order_book_btcusd"}, channels)
}
