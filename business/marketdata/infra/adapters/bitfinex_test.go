package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestBitfinexChannelForL3Event(t *testing.T) {
	ch, err := bitfinexChannelFor(domain.ChannelKindL3Event, "BTCUSD")
	require.NoError(t, err)
	require.Equal(t, domain.Channel("book_r0:tBTCUSD"), ch)
}

func TestBitfinexSubscribeCmdRawBookUsesPrecR0(t *testing.T) {
	cmds, err := bitfinexSubscribeCmd([]domain.Channel{"book_r0:tBTCUSD"}, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"event":"subscribe","channel":"book","symbol":"tBTCUSD","prec":"R0","len":"250"}`, cmds[0])
}

func TestBitfinexL2EventSubscribeCmdOmitsPrec(t *testing.T) {
	cmds, err := bitfinexSubscribeCmd([]domain.Channel{"book:tBTCUSD"}, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"event":"subscribe","channel":"book","symbol":"tBTCUSD"}`, cmds[0])
}
