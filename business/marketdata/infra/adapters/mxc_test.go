package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func TestMxcSpotSubscribeCmd(t *testing.T) {
	cmds, err := mxcSpotSubscribeCmd([]domain.Channel{"symbol:BTC_USDT"}, true)
	require.NoError(t, err)
	require.Equal(t, []string{`42["sub.symbol",{"symbol":"BTC_USDT"}]`}, cmds)

	cmds, err = mxcSpotSubscribeCmd([]domain.Channel{"symbol:BTC_USDT"}, false)
	require.NoError(t, err)
	require.Equal(t, []string{`42["unsub.symbol",{"symbol":"BTC_USDT"}]`}, cmds)
}

func TestMxcSwapSubscribeCmd(t *testing.T) {
	cmds, err := mxcSwapSubscribeCmd([]domain.Channel{"deal:BTC_USDT"}, true)
	require.NoError(t, err)
	require.Equal(t, []string{`{"method":"sub.deal","param":{"symbol":"BTC_USDT"}}`}, cmds)

	cmds, err = mxcSwapSubscribeCmd([]domain.Channel{"deal:BTC_USDT"}, false)
	require.NoError(t, err)
	require.Equal(t, []string{`{"method":"unsub.deal","param":{"symbol":"BTC_USDT"}}`}, cmds)
}

func TestMxcSpotClassify(t *testing.T) {
	require.Equal(t, domain.Reconnect, mxcSpotClassify(domain.Frame{Data: []byte("1")}))
	require.Equal(t, domain.Pong, mxcSpotClassify(domain.Frame{Data: []byte("3")}))
	require.Equal(t, domain.Normal, mxcSpotClassify(domain.Frame{Data: []byte(`42["symbol",{}]`)}))
}

func TestMxcSwapClassifyFatalOnRsError(t *testing.T) {
	frame := domain.Frame{Data: []byte(`{"channel":"rs.error","data":{},"ts":1}`)}
	require.Equal(t, domain.Error, mxcSwapClassify(frame))
}
