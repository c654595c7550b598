// Package snapshot implements the REST-sourced counterpart to the WS
// Connection Worker: a fixed-cadence poller for venues that publish order
// book snapshots over REST rather than push them down a socket. It shares
// the façade's duration/stop-flag contract so a caller sees the same Handle
// shape regardless of whether a channel came from WS or REST.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/app"
	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/apperror"
	"github.com/fd1az/market-crawler/internal/httpclient"
	"github.com/fd1az/market-crawler/internal/logger"
	"github.com/fd1az/market-crawler/internal/ratelimit"
)

// URLBuilder renders the REST snapshot endpoint for one pair. One venue
// adapter contributes one of these per (exchange, market type).
type URLBuilder func(pair string) string

// Config parameterizes one snapshot Crawler.
type Config struct {
	Exchange    string
	MarketType  domain.MarketType
	MessageType domain.MessageType // L2Snapshot or L3Snapshot
	Pairs       []string
	URL         URLBuilder
	Interval    time.Duration
	Sink        app.Sink
	Log         logger.LoggerInterface
	HTTP        httpclient.Client
	Limiter     *ratelimit.Limiter
	// Duration bounds the crawl's lifetime; zero means run until ctx is
	// cancelled.
	Duration time.Duration
}

// Crawler polls one venue's snapshot REST endpoint for every configured pair
// on a fixed cadence and forwards each response body as a Message.
type Crawler struct {
	cfg Config
}

// New builds a Crawler, defaulting an unset Limiter to 60 requests per
// minute (one per second, burst of 6) and an unset Interval to 5s.
func New(cfg Config) *Crawler {
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(60)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Crawler{cfg: cfg}
}

// Run polls every pair's snapshot endpoint once per Interval until ctx is
// cancelled or Duration elapses.
func (c *Crawler) Run(ctx context.Context) error {
	if c.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Duration)
		defer cancel()
	}

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	if err := c.pollAll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.pollAll(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Crawler) pollAll(ctx context.Context) error {
	for _, pair := range c.cfg.Pairs {
		if err := c.pollOne(ctx, pair); err != nil {
			c.cfg.Log.Warn(ctx, "snapshot poll failed",
				"exchange", c.cfg.Exchange, "pair", pair, "error", err)
		}
	}
	return nil
}

func (c *Crawler) pollOne(ctx context.Context, pair string) error {
	if err := c.cfg.Limiter.Wait(ctx); err != nil {
		return err
	}

	url := c.cfg.URL(pair)
	resp, err := c.cfg.HTTP.NewRequest().Get(ctx, url)
	if err != nil {
		return apperror.New(apperror.CodeSnapshotFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s %s", c.cfg.Exchange, pair)),
			apperror.WithCause(err))
	}
	if resp.IsError() {
		return apperror.New(apperror.CodeSnapshotFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s %s: HTTP %d", c.cfg.Exchange, pair, resp.StatusCode)))
	}

	msg := domain.Message{
		Exchange:    c.cfg.Exchange,
		MarketType:  c.cfg.MarketType,
		MessageType: c.cfg.MessageType,
		ReceivedAt:  time.Now(),
		Payload:     resp.String(),
	}
	if err := c.cfg.Sink.Accept(ctx, msg); err != nil {
		c.cfg.Log.Warn(ctx, "sink rejected snapshot message", "exchange", c.cfg.Exchange, "error", err)
	}
	return nil
}

// BinanceDepthSnapshot renders Binance's spot order book snapshot REST
// endpoint for one pair (upper-cased, no delimiter, per Binance's own
// convention).
func BinanceDepthSnapshot(pair string) string {
	return fmt.Sprintf("https://api.binance.com/api/v3/depth?symbol=%s&limit=1000", strings.ToUpper(pair))
}

// HuobiDepthSnapshot renders Huobi spot's full order book snapshot REST
// endpoint for one pair.
func HuobiDepthSnapshot(pair string) string {
	return fmt.Sprintf("https://api.huobi.pro/market/depth?symbol=%s&type=step0", pair)
}
