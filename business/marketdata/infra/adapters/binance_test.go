package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestBinanceChannelFor(t *testing.T) {
	ch, err := binanceChannelFor(domain.ChannelKindTrade, "BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, domain.Channel("BTCUSDT@trade"), ch)
}

func TestBinanceCandlestickChannel(t *testing.T) {
	ch, err := binanceCandlestickChannel("BTCUSDT", 300)
	require.NoError(t, err)
	require.Equal(t, domain.Channel("BTCUSDT@kline_5m"), ch)

	_, err = binanceCandlestickChannel("BTCUSDT", 120)
	require.Error(t, err)
}

func TestBinanceSubscribeCmd(t *testing.T) {
	cmds, err := binanceSubscribeCmd([]domain.Channel{"BTCUSDT@trade"}, true)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.JSONEq(t, `{"id":9527,"method":"SUBSCRIBE","params":["BTCUSDT@trade"]}`, cmds[0])
}

func TestBinanceClassify(t *testing.T) {
	require.Equal(t, domain.Misc, binanceClassify(domain.Frame{Data: []byte(`{"id":9527}`)}))
	require.Equal(t, domain.Pong, binanceClassify(domain.Frame{Data: []byte(`{"event":"pong"}`)}))
	require.Equal(t, domain.Normal, binanceClassify(domain.Frame{
		Data: []byte(`{"stream":"btcusdt@trade","data":{"e":"trade"}}`),
	}))
}

func TestBinanceOptionAdapterUsesSeparateEndpoint(t *testing.T) {
	a, _, err := Binance(domain.BuildRequest{MarketType: domain.EuropeanOption, MessageType: domain.Trade, Pairs: []string{"BTCUSDT"}})
	require.NoError(t, err)
	require.Equal(t, binanceOptionWebsocketURL, a.URL)
	require.NotNil(t, a.Keepalive)
	require.Equal(t, `{"event":"ping"}`, a.Keepalive.Payload)
}
