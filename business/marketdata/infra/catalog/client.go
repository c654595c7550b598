// Package catalog implements the Subscription Planner's symbol lookup
// collaborator: a thin REST client that turns a venue's own "list all
// tradable instruments" endpoint into the flat []string pair list the
// engine's Plan/Refresher need. Parsing is deliberately shallow per venue.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/apperror"
	"github.com/fd1az/market-crawler/internal/httpclient"
	"github.com/fd1az/market-crawler/internal/ratelimit"
)

// endpoint describes one venue's symbol-listing REST call and how to pull
// the pair list back out of its response body.
type endpoint struct {
	url    string
	decode func(body []byte) ([]string, error)
}

// Client fetches the tradable pair list for an (exchange, marketType) pair
// over REST, rate-limited the same way the REST snapshot crawler is.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
}

// New builds a Client against an already-configured instrumented HTTP
// client. requestsPerMinute bounds how often any venue's endpoint is hit.
func New(http httpclient.Client, requestsPerMinute int) *Client {
	return &Client{http: http, limiter: ratelimit.New(requestsPerMinute)}
}

// Pairs fetches the tradable symbol list for exchange/marketType. It
// implements app.CatalogClient.
func (c *Client) Pairs(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error) {
	ep, ok := endpoints[exchange][marketType]
	if !ok {
		return nil, apperror.New(apperror.CodeCatalogFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s has no catalog endpoint for %s", exchange, marketType)))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.NewRequest().Get(ctx, ep.url)
	if err != nil {
		return nil, apperror.New(apperror.CodeCatalogFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s: %s", exchange, ep.url)),
			apperror.WithCause(err))
	}
	if resp.IsError() {
		return nil, apperror.New(apperror.CodeCatalogFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s: HTTP %d from %s", exchange, resp.StatusCode, ep.url)))
	}

	pairs, err := ep.decode(resp.Body())
	if err != nil {
		return nil, apperror.New(apperror.CodeCatalogFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s: decoding catalog response", exchange)),
			apperror.WithCause(err))
	}
	return pairs, nil
}

// endpoints is the per-venue, per-market-type REST catalog table. The URLs
// mirror the same public REST hosts the WS adapters' exchanges expose;
// decode is intentionally shallow, it only extracts a symbol field.
var endpoints = map[string]map[domain.MarketType]endpoint{
	"binance": {
		domain.Spot: {url: "https://api.binance.com/api/v3/exchangeInfo", decode: decodeBinanceSpot},
	},
	"huobi": {
		domain.Spot: {url: "https://api.huobi.pro/v1/common/symbols", decode: decodeHuobiSpot},
	},
	"okex": {
		domain.Spot: {url: "https://www.okx.com/api/v5/public/instruments?instType=SPOT", decode: decodeOkexInstruments},
	},
	"kraken": {
		domain.Spot: {url: "https://api.kraken.com/0/public/AssetPairs", decode: decodeKrakenAssetPairs},
	},
	"coinbase_pro": {
		domain.Spot: {url: "https://api.exchange.coinbase.com/products", decode: decodeCoinbaseProProducts},
	},
	"kucoin": {
		domain.Spot: {url: "https://api.kucoin.com/api/v1/symbols", decode: decodeKucoinSymbols},
	},
}

func decodeBinanceSpot(body []byte) ([]string, error) {
	var v struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v.Symbols))
	for _, s := range v.Symbols {
		if s.Status != "" && s.Status != "TRADING" {
			continue
		}
		out = append(out, strings.ToLower(s.Symbol))
	}
	return out, nil
}

func decodeHuobiSpot(body []byte) ([]string, error) {
	var v struct {
		Data []struct {
			Symbol string `json:"symbol"`
			State  string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v.Data))
	for _, d := range v.Data {
		if d.State != "" && d.State != "online" {
			continue
		}
		out = append(out, d.Symbol)
	}
	return out, nil
}

func decodeOkexInstruments(body []byte) ([]string, error) {
	var v struct {
		Data []struct {
			InstID string `json:"instId"`
			State  string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v.Data))
	for _, d := range v.Data {
		if d.State != "" && d.State != "live" {
			continue
		}
		out = append(out, d.InstID)
	}
	return out, nil
}

func decodeKrakenAssetPairs(body []byte) ([]string, error) {
	var v struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v.Result))
	for name := range v.Result {
		out = append(out, name)
	}
	return out, nil
}

func decodeCoinbaseProProducts(body []byte) ([]string, error) {
	var v []struct {
		ID            string `json:"id"`
		TradingStatus string `json:"status"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v))
	for _, p := range v {
		if p.TradingStatus != "" && p.TradingStatus != "online" {
			continue
		}
		out = append(out, p.ID)
	}
	return out, nil
}

func decodeKucoinSymbols(body []byte) ([]string, error) {
	var v struct {
		Data []struct {
			Symbol     string `json:"symbol"`
			EnableTrad bool   `json:"enableTrading"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(v.Data))
	for _, s := range v.Data {
		if !s.EnableTrad {
			continue
		}
		out = append(out, s.Symbol)
	}
	return out, nil
}
