package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/httpclient"
)

func TestClientPairsFetchesAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[{"symbol":"BTCUSDT","status":"TRADING"}]}`))
	}))
	defer srv.Close()

	restore := swapEndpoint("testvenue", domain.Spot, endpoint{url: srv.URL, decode: decodeBinanceSpot})
	defer restore()

	httpClient, err := httpclient.NewInstrumentedClient()
	require.NoError(t, err)

	c := New(httpClient, 600)
	pairs, err := c.Pairs(context.Background(), "testvenue", domain.Spot)
	require.NoError(t, err)
	require.Equal(t, []string{"btcusdt"}, pairs)
}

func TestClientPairsUnsupportedMarketType(t *testing.T) {
	httpClient, err := httpclient.NewInstrumentedClient()
	require.NoError(t, err)

	c := New(httpClient, 600)
	_, err = c.Pairs(context.Background(), "binance", domain.InverseSwap)
	require.Error(t, err)
}

func TestClientPairsPropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	restore := swapEndpoint("testvenue", domain.Spot, endpoint{url: srv.URL, decode: decodeBinanceSpot})
	defer restore()

	httpClient, err := httpclient.NewInstrumentedClient()
	require.NoError(t, err)

	c := New(httpClient, 600)
	_, err = c.Pairs(context.Background(), "testvenue", domain.Spot)
	require.Error(t, err)
}

// swapEndpoint installs a temporary endpoints entry for exchange/marketType
// and returns a func that restores the previous table, for tests that need a
// Client pointed at an httptest server instead of a real venue host.
func swapEndpoint(exchange string, marketType domain.MarketType, ep endpoint) func() {
	prev := endpoints[exchange]
	if endpoints[exchange] == nil {
		endpoints[exchange] = map[domain.MarketType]endpoint{}
	}
	endpoints[exchange][marketType] = ep
	return func() {
		if prev == nil {
			delete(endpoints, exchange)
		} else {
			endpoints[exchange] = prev
		}
	}
}
