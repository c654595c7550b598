package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

type fakeCatalog struct {
	pairs []string
}

func (f *fakeCatalog) Pairs(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error) {
	return f.pairs, nil
}

func TestRefresherReportsChangedPairSet(t *testing.T) {
	catalog := &fakeCatalog{pairs: []string{"btcusdt", "ethusdt"}}
	r := &Refresher{
		Catalog:    catalog,
		Exchange:   "binance",
		MarketType: domain.Spot,
		Log:        nopLogger{},
		Interval:   10 * time.Millisecond,
		Jitter:     1 * time.Millisecond,
	}

	var calls int32
	var lastPairs []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, []string{"btcusdt"}, func(pairs []string) {
			atomic.AddInt32(&calls, 1)
			lastPairs = pairs
		})
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	require.ElementsMatch(t, []string{"btcusdt", "ethusdt"}, lastPairs)
}

func TestRefresherSkipsOnUnchangedPairSet(t *testing.T) {
	catalog := &fakeCatalog{pairs: []string{"btcusdt"}}
	r := &Refresher{
		Catalog:    catalog,
		Exchange:   "binance",
		MarketType: domain.Spot,
		Log:        nopLogger{},
		Interval:   10 * time.Millisecond,
		Jitter:     1 * time.Millisecond,
	}

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, []string{"btcusdt"}, func(pairs []string) {
			atomic.AddInt32(&calls, 1)
		})
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
