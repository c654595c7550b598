package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/exchangelock"
	"github.com/fd1az/market-crawler/internal/wsconn"
)

func fakeFactory(req domain.BuildRequest) (domain.Adapter, []domain.Channel, error) {
	a := domain.Adapter{
		Exchange:   "fake",
		MarketType: req.MarketType,
		URL:        "wss://fake.test/ws",
		Classify:   func(domain.Frame) domain.Classification { return domain.Normal },
		SubscribeCmdBuilder: func(channels []domain.Channel, subscribe bool) ([]string, error) {
			return []string{"SUBSCRIBE"}, nil
		},
	}
	channels := make([]domain.Channel, len(req.Pairs))
	for i, p := range req.Pairs {
		channels[i] = domain.Channel("trade:" + p)
	}
	return a, channels, nil
}

func TestEngineCrawlDispatchesAndDelivers(t *testing.T) {
	var mu sync.Mutex
	var transports []*fakeTransport
	newTransport := func(cfg wsconn.Config) (Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		tr := newFakeTransport()
		transports = append(transports, tr)
		return tr, nil
	}

	var received []domain.Message
	sink := SinkFunc(func(ctx context.Context, msg domain.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return nil
	})

	e := &Engine{
		Registry:     map[string]domain.AdapterFactory{"fake": fakeFactory},
		Log:          nopLogger{},
		Lock:         exchangelock.NewTable(),
		NewTransport: newTransport,
	}

	handle := e.Crawl(context.Background(), domain.Trade, CrawlOptions{
		Exchange:   "fake",
		MarketType: domain.Spot,
		Pairs:      []string{"BTC_USDT"},
		Sink:       sink,
		Duration:   100 * time.Millisecond,
	})

	<-handle.Done()
	require.NoError(t, handle.Err())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, transports, 1)
	require.Equal(t, []string{"SUBSCRIBE"}, transports[0].sentCmds())
}

// mutableFakeCatalog lets a test change the pair list returned by Pairs()
// after the crawl has already started, to drive the Symbol Refresher.
type mutableFakeCatalog struct {
	mu    sync.Mutex
	pairs []string
}

func (f *mutableFakeCatalog) Pairs(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.pairs))
	copy(out, f.pairs)
	return out, nil
}

func (f *mutableFakeCatalog) set(pairs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = pairs
}

// TestEngineRefreshResubscribesRunningWorker drives a crawl with no explicit
// pair list, then changes the catalog's pair set: the running worker must
// pick up the new pair's subscribe command without the crawl being
// restarted.
func TestEngineRefreshResubscribesRunningWorker(t *testing.T) {
	var mu sync.Mutex
	var transports []*fakeTransport
	newTransport := func(cfg wsconn.Config) (Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		tr := newFakeTransport()
		transports = append(transports, tr)
		return tr, nil
	}

	catalog := &mutableFakeCatalog{pairs: []string{"BTC_USDT"}}

	e := &Engine{
		Registry:        map[string]domain.AdapterFactory{"fake": fakeFactory},
		Catalog:         catalog,
		Log:             nopLogger{},
		Lock:            exchangelock.NewTable(),
		NewTransport:    newTransport,
		RefreshInterval: 10 * time.Millisecond,
		RefreshJitter:   time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle := e.Crawl(ctx, domain.Trade, CrawlOptions{
		Exchange:   "fake",
		MarketType: domain.Spot,
		Sink:       SinkFunc(func(ctx context.Context, msg domain.Message) error { return nil }),
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) == 1 && len(transports[0].sentCmds()) > 0
	}, time.Second, time.Millisecond)

	catalog.set([]string{"BTC_USDT", "ETH_USDT"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(transports) == 0 {
			return false
		}
		return len(transports[0].sentCmds()) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-handle.Done()
}

func TestEngineCrawlUnsupportedExchange(t *testing.T) {
	e := &Engine{
		Registry: map[string]domain.AdapterFactory{"fake": fakeFactory},
		Log:      nopLogger{},
		Lock:     exchangelock.NewTable(),
	}

	handle := e.Crawl(context.Background(), domain.Trade, CrawlOptions{
		Exchange: "unknown",
		Sink:     SinkFunc(func(ctx context.Context, msg domain.Message) error { return nil }),
	})

	<-handle.Done()
	require.Error(t, handle.Err())
}
