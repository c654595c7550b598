package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/app"
	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/httpclient"
	"github.com/fd1az/market-crawler/internal/logger"
)

func TestBinanceDepthSnapshotURL(t *testing.T) {
	require.Equal(t, "https://api.binance.com/api/v3/depth?symbol=BTCUSDT&limit=1000", BinanceDepthSnapshot("btcusdt"))
}

func TestHuobiDepthSnapshotURL(t *testing.T) {
	require.Equal(t, "https://api.huobi.pro/market/depth?symbol=btcusdt&type=step0", HuobiDepthSnapshot("btcusdt"))
}

func TestCrawlerRunPollsEveryPairAndForwards(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"lastUpdateId":1,"bids":[],"asks":[]}`))
	}))
	defer srv.Close()

	httpClient, err := httpclient.NewInstrumentedClient()
	require.NoError(t, err)

	var mu sync.Mutex
	var received []domain.Message
	sink := app.SinkFunc(func(ctx context.Context, msg domain.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return nil
	})

	c := New(Config{
		Exchange:    "binance",
		MarketType:  domain.Spot,
		MessageType: domain.L2Snapshot,
		Pairs:       []string{"btcusdt", "ethusdt"},
		URL:         func(pair string) string { return srv.URL },
		Interval:    20 * time.Millisecond,
		Sink:        sink,
		Log:         testLogger{},
		HTTP:        httpClient,
		Duration:    60 * time.Millisecond,
	})

	err = c.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(received), 2)
	for _, m := range received {
		require.Equal(t, "binance", m.Exchange)
		require.Equal(t, domain.L2Snapshot, m.MessageType)
		require.Equal(t, `{"lastUpdateId":1,"bids":[],"asks":[]}`, m.Payload)
	}
}

func TestCrawlerRunLogsAndContinuesOnPollError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	httpClient, err := httpclient.NewInstrumentedClient()
	require.NoError(t, err)

	sink := app.SinkFunc(func(ctx context.Context, msg domain.Message) error { return nil })

	c := New(Config{
		Exchange:    "binance",
		MarketType:  domain.Spot,
		MessageType: domain.L2Snapshot,
		Pairs:       []string{"btcusdt"},
		URL:         func(pair string) string { return srv.URL },
		Interval:    20 * time.Millisecond,
		Sink:        sink,
		Log:         testLogger{},
		HTTP:        httpClient,
		Duration:    30 * time.Millisecond,
	})

	err = c.Run(context.Background())
	require.NoError(t, err)
}

// testLogger discards everything; snapshot tests only assert on delivered
// messages, not log output.
type testLogger struct{}

func (testLogger) Debug(ctx context.Context, msg string, keyvals ...interface{}) {}
func (testLogger) Info(ctx context.Context, msg string, keyvals ...interface{})  {}
func (testLogger) Warn(ctx context.Context, msg string, keyvals ...interface{})  {}
func (testLogger) Error(ctx context.Context, msg string, keyvals ...interface{}) {}
func (t testLogger) With(keyvals ...interface{}) logger.LoggerInterface         { return t }

var _ logger.LoggerInterface = testLogger{}
