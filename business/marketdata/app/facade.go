package app

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/apperror"
	"github.com/fd1az/market-crawler/internal/exchangelock"
	"github.com/fd1az/market-crawler/internal/logger"
)

// Engine is the composition root for every Crawl* call: it carries the
// adapter registry, the catalog used to resolve an unset pair list, the
// sink every message is delivered to, and the lock table workers share.
type Engine struct {
	Registry     map[string]domain.AdapterFactory
	Catalog      CatalogClient
	Log          logger.LoggerInterface
	Lock         *exchangelock.Table
	NewTransport NewTransport
	// RefreshInterval and RefreshJitter parameterize the Symbol Refresher
	// started for crawls with no explicit pair list; zero means the
	// Refresher's own defaults.
	RefreshInterval time.Duration
	RefreshJitter   time.Duration
	// MinConnectInterval floors the pacing between successive connection
	// dials within one crawl, even for adapters that declare no (or a
	// shorter) ConnectInterval of their own.
	MinConnectInterval time.Duration
	// KeepaliveMultiplier sets how many keepalive intervals of silence a
	// Connection Worker tolerates before declaring the connection dead.
	// Zero means the Worker's own default.
	KeepaliveMultiplier int
}

// CrawlOptions parameterizes one Crawl* call.
type CrawlOptions struct {
	Exchange        string
	MarketType      domain.MarketType
	Pairs           []string // nil means "all pairs", resolved via Catalog and refreshed hourly
	Sink            Sink
	Duration        time.Duration // zero means run until ctx is cancelled
	IntervalSeconds int           // candlestick interval; ignored otherwise
}

// Crawl dispatches to the crawl kind named by messageType. The ten CrawlX
// methods below are thin wrappers around this for callers that know their
// message type at compile time; the CLI, which only knows it from a flag,
// calls this directly.
func (e *Engine) Crawl(ctx context.Context, messageType domain.MessageType, opts CrawlOptions) Handle {
	return e.crawl(ctx, messageType, opts)
}

func (e *Engine) crawl(ctx context.Context, messageType domain.MessageType, opts CrawlOptions) Handle {
	h := newHandle()
	go func() {
		h.finish(e.run(ctx, messageType, opts))
	}()
	return h
}

func (e *Engine) run(ctx context.Context, messageType domain.MessageType, opts CrawlOptions) error {
	factory, ok := e.Registry[opts.Exchange]
	if !ok {
		return apperror.New(apperror.CodeUnsupportedExchange, apperror.WithContext(opts.Exchange))
	}

	pairs := opts.Pairs
	if len(pairs) == 0 {
		if e.Catalog == nil {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("no pairs given and no catalog configured for " + opts.Exchange))
		}
		resolved, err := e.Catalog.Pairs(ctx, opts.Exchange, opts.MarketType)
		if err != nil {
			return apperror.New(apperror.CodeCatalogFetchFailed, apperror.WithContext(opts.Exchange), apperror.WithCause(err))
		}
		pairs = resolved
	}

	adapter, channels, err := factory(domain.BuildRequest{
		MarketType:      opts.MarketType,
		MessageType:     messageType,
		Pairs:           pairs,
		IntervalSeconds: opts.IntervalSeconds,
	})
	if err != nil {
		return apperror.New(apperror.CodeInvalidChannel, apperror.WithContext(opts.Exchange), apperror.WithCause(err))
	}

	batches := Plan(channels, adapter.MaxSubsPerConnection)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	connectInterval := adapter.ConnectInterval
	if e.MinConnectInterval > connectInterval {
		connectInterval = e.MinConnectInterval
	}

	pool := newWorkerPool(adapter.MaxSubsPerConnection)

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	nextIdx := 0
	startWorker := func(batch []domain.Channel) {
		if ctx.Err() != nil {
			return
		}
		idx := nextIdx
		nextIdx++
		w := NewWorker(WorkerConfig{
			ConnectionID:        connectionID(opts.Exchange, messageType, idx),
			Adapter:             adapter,
			MessageType:         messageType,
			Channels:            batch,
			Sink:                opts.Sink,
			Log:                 e.Log,
			Lock:                e.Lock,
			NewTransport:        e.NewTransport,
			Duration:            opts.Duration,
			KeepaliveMultiplier: e.KeepaliveMultiplier,
		})
		pool.add(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}()
	}

	for i, batch := range batches {
		startWorker(batch)
		if connectInterval > 0 && i < len(batches)-1 {
			time.Sleep(connectInterval)
		}
	}

	if len(opts.Pairs) == 0 {
		refresher := &Refresher{
			Catalog:    e.Catalog,
			Exchange:   opts.Exchange,
			MarketType: opts.MarketType,
			Log:        e.Log,
			Interval:   e.RefreshInterval,
			Jitter:     e.RefreshJitter,
		}
		prevPairs := pairs
		go refresher.Run(ctx, pairs, func(newPairs []string) {
			added, removed := diffPairs(prevPairs, newPairs)
			e.Log.Info(ctx, "catalog refresh: resyncing subscriptions",
				"exchange", opts.Exchange, "added", len(added), "removed", len(removed))
			resyncPairs(ctx, factory, opts, messageType, adapter, added, removed, pool, startWorker, e.Log)
			prevPairs = newPairs
		})
	}

	wg.Wait()
	return firstErr
}

func connectionID(exchange string, mt domain.MessageType, idx int) string {
	return exchange + "." + mt.String() + "." + strconv.Itoa(idx)
}

// CrawlTrade crawls realtime trades.
func (e *Engine) CrawlTrade(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.Trade, opts)
}

// CrawlL2Event crawls level2 orderbook update events.
func (e *Engine) CrawlL2Event(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.L2Event, opts)
}

// CrawlL2TopK crawls level2 orderbook top-K snapshots pushed by the venue.
func (e *Engine) CrawlL2TopK(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.L2TopK, opts)
}

// CrawlL2Snapshot crawls level2 orderbook snapshots.
func (e *Engine) CrawlL2Snapshot(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.L2Snapshot, opts)
}

// CrawlL3Event crawls level3 orderbook update events.
func (e *Engine) CrawlL3Event(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.L3Event, opts)
}

// CrawlL3Snapshot crawls level3 orderbook snapshots.
func (e *Engine) CrawlL3Snapshot(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.L3Snapshot, opts)
}

// CrawlBBO crawls best-bid-offer updates.
func (e *Engine) CrawlBBO(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.BBO, opts)
}

// CrawlTicker crawls 24hr ticker updates.
func (e *Engine) CrawlTicker(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.Ticker, opts)
}

// CrawlCandlestick crawls candlestick (OHLCV) updates. opts.IntervalSeconds
// selects the bar size.
func (e *Engine) CrawlCandlestick(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.Candlestick, opts)
}

// CrawlFundingRate crawls perpetual swap funding rate updates. Only
// InverseSwap and LinearSwap market types carry a meaningful funding rate.
func (e *Engine) CrawlFundingRate(ctx context.Context, opts CrawlOptions) Handle {
	return e.crawl(ctx, domain.FundingRate, opts)
}
