package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeBinanceSpot(t *testing.T) {
	body := []byte(`{"symbols":[
		{"symbol":"BTCUSDT","status":"TRADING"},
		{"symbol":"ETHUSDT","status":"TRADING"},
		{"symbol":"DELISTEDCOIN","status":"BREAK"}
	]}`)
	pairs, err := decodeBinanceSpot(body)
	require.NoError(t, err)
	require.Equal(t, []string{"btcusdt", "ethusdt"}, pairs)
}

func TestDecodeHuobiSpot(t *testing.T) {
	body := []byte(`{"data":[
		{"symbol":"btcusdt","state":"online"},
		{"symbol":"oldusdt","state":"offline"}
	]}`)
	pairs, err := decodeHuobiSpot(body)
	require.NoError(t, err)
	require.Equal(t, []string{"btcusdt"}, pairs)
}

func TestDecodeOkexInstruments(t *testing.T) {
	body := []byte(`{"data":[
		{"instId":"BTC-USDT","state":"live"},
		{"instId":"ETH-USDT","state":"suspend"}
	]}`)
	pairs, err := decodeOkexInstruments(body)
	require.NoError(t, err)
	require.Equal(t, []string{"BTC-USDT"}, pairs)
}

func TestDecodeKrakenAssetPairs(t *testing.T) {
	body := []byte(`{"result":{"XXBTZUSD":{},"XETHZUSD":{}}}`)
	pairs, err := decodeKrakenAssetPairs(body)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"XXBTZUSD", "XETHZUSD"}, pairs)
}

func TestDecodeCoinbaseProProducts(t *testing.T) {
	body := []byte(`[
		{"id":"BTC-USD","status":"online"},
		{"id":"OLD-USD","status":"delisted"}
	]`)
	pairs, err := decodeCoinbaseProProducts(body)
	require.NoError(t, err)
	require.Equal(t, []string{"BTC-USD"}, pairs)
}

func TestDecodeKucoinSymbols(t *testing.T) {
	body := []byte(`{"data":[
		{"symbol":"BTC-USDT","enableTrading":true},
		{"symbol":"OLD-USDT","enableTrading":false}
	]}`)
	pairs, err := decodeKucoinSymbols(body)
	require.NoError(t, err)
	require.Equal(t, []string{"BTC-USDT"}, pairs)
}
