package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/exchangelock"
	"github.com/fd1az/market-crawler/internal/logger"
	"github.com/fd1az/market-crawler/internal/wsconn"
)

// nopLogger implements logger.LoggerInterface with no-op methods, mirroring
// the mock logger style used elsewhere in the corpus for unit tests that
// don't care about log output.
type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, keyvals ...interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, keyvals ...interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, keyvals ...interface{})  {}
func (nopLogger) Error(ctx context.Context, msg string, keyvals ...interface{}) {}
func (n nopLogger) With(keyvals ...interface{}) logger.LoggerInterface         { return n }

var _ logger.LoggerInterface = nopLogger{}

// fakeTransport is a Transport double driven entirely in-process: Send calls
// are recorded, and inbound frames are delivered by pushing onto msgCh.
type fakeTransport struct {
	mu        sync.Mutex
	sent      []string
	msgCh     chan []byte
	connected int32
	closed    int32
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{msgCh: make(chan []byte, 16)}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	atomic.StoreInt32(&f.connected, 1)
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, string(msg))
	return nil
}

func (f *fakeTransport) Messages() <-chan []byte { return f.msgCh }

func (f *fakeTransport) Close() error {
	atomic.StoreInt32(&f.closed, 1)
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	return atomic.LoadInt32(&f.connected) == 1 && atomic.LoadInt32(&f.closed) == 0
}

func (f *fakeTransport) sentCmds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func reconnectClassify(f domain.Frame) domain.Classification {
	if string(f.Data) == "1" {
		return domain.Reconnect
	}
	return domain.Normal
}

func testAdapter(classify domain.ClassifyFunc) domain.Adapter {
	return domain.Adapter{
		Exchange:   "fake",
		MarketType: domain.Spot,
		URL:        "wss://fake.test/ws",
		Classify:   classify,
		SubscribeCmdBuilder: func(channels []domain.Channel, subscribe bool) ([]string, error) {
			return []string{"SUBSCRIBE"}, nil
		},
	}
}

// TestWorkerReconnectsOnReconnectFrame drives scenario: a venue frame
// classified Reconnect tears the connection down and the worker redials,
// resending the exact same subscribe batch on the new connection.
func TestWorkerReconnectsOnReconnectFrame(t *testing.T) {
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

	w := NewWorker(WorkerConfig{
		ConnectionID: "fake.0",
		Adapter:      testAdapter(reconnectClassify),
		MessageType:  domain.Trade,
		Channels:     []domain.Channel{"trade:BTC_USDT"},
		Sink:         sink,
		Log:          nopLogger{},
		Lock:         exchangelock.NewTable(),
		NewTransport: newTransport,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for the first connection to dial and subscribe.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) == 1 && len(transports[0].sentCmds()) > 0
	}, time.Second, time.Millisecond)

	mu.Lock()
	first := transports[0]
	mu.Unlock()
	first.msgCh <- []byte("1") // triggers Reconnect classification

	// The worker should redial: a second transport shows up and gets the same
	// subscribe batch.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) == 2 && len(transports[1].sentCmds()) > 0
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	require.Equal(t, transports[0].sentCmds(), transports[1].sentCmds())
	mu.Unlock()

	cancel()
	<-done
}

// TestWorkerReconnectsOnTransportClose drives the real-disconnect path: no
// Reconnect frame ever arrives, the transport just closes its Messages()
// channel the way wsconn does on a socket-level read error. The worker must
// notice the channel close and redial on its own, same as for a Reconnect
// frame.
func TestWorkerReconnectsOnTransportClose(t *testing.T) {
	var mu sync.Mutex
	var transports []*fakeTransport

	newTransport := func(cfg wsconn.Config) (Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		tr := newFakeTransport()
		transports = append(transports, tr)
		return tr, nil
	}

	w := NewWorker(WorkerConfig{
		ConnectionID: "fake.0",
		Adapter:      testAdapter(func(domain.Frame) domain.Classification { return domain.Normal }),
		MessageType:  domain.Trade,
		Channels:     []domain.Channel{"trade:BTC_USDT"},
		Sink:         SinkFunc(func(ctx context.Context, msg domain.Message) error { return nil }),
		Log:          nopLogger{},
		Lock:         exchangelock.NewTable(),
		NewTransport: newTransport,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) == 1 && len(transports[0].sentCmds()) > 0
	}, time.Second, time.Millisecond)

	mu.Lock()
	first := transports[0]
	mu.Unlock()
	close(first.msgCh) // simulates a socket-level disconnect, not a Reconnect frame

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) == 2 && len(transports[1].sentCmds()) > 0
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

// TestWorkerNormalFrameDeliversExactlyOneMessage checks the Normal/Pong/Misc
// routing invariant: only Normal frames reach the sink.
func TestWorkerNormalFrameDeliversExactlyOneMessage(t *testing.T) {
	tr := newFakeTransport()
	newTransport := func(cfg wsconn.Config) (Transport, error) { return tr, nil }

	var mu sync.Mutex
	var received []domain.Message
	sink := SinkFunc(func(ctx context.Context, msg domain.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return nil
	})

	classify := func(f domain.Frame) domain.Classification {
		switch string(f.Data) {
		case "ping":
			return domain.Pong
		case "ack":
			return domain.Misc
		default:
			return domain.Normal
		}
	}

	w := NewWorker(WorkerConfig{
		ConnectionID: "fake.0",
		Adapter:      testAdapter(classify),
		MessageType:  domain.Trade,
		Channels:     []domain.Channel{"trade:BTC_USDT"},
		Sink:         sink,
		Log:          nopLogger{},
		Lock:         exchangelock.NewTable(),
		NewTransport: newTransport,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return tr.IsConnected() }, time.Second, time.Millisecond)

	tr.msgCh <- []byte("ping")
	tr.msgCh <- []byte("ack")
	tr.msgCh <- []byte(`{"data":"trade"}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Equal(t, `{"data":"trade"}`, received[0].Payload)
}

// TestWorkerStopsAtDuration checks the crawl lifetime bound: Run returns on
// its own once Duration elapses, without needing ctx cancellation.
func TestWorkerStopsAtDuration(t *testing.T) {
	tr := newFakeTransport()
	newTransport := func(cfg wsconn.Config) (Transport, error) { return tr, nil }

	sink := SinkFunc(func(ctx context.Context, msg domain.Message) error { return nil })

	w := NewWorker(WorkerConfig{
		ConnectionID: "fake.0",
		Adapter:      testAdapter(func(domain.Frame) domain.Classification { return domain.Normal }),
		MessageType:  domain.Trade,
		Channels:     []domain.Channel{"trade:BTC_USDT"},
		Sink:         sink,
		Log:          nopLogger{},
		Lock:         exchangelock.NewTable(),
		NewTransport: newTransport,
		Duration:     200 * time.Millisecond,
	})

	start := time.Now()
	err := w.Run(context.Background())
	require.NoError(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

// TestWorkerKeepaliveWatchdogReconnectsOnSilence checks that the watchdog
// fires after KeepaliveMultiplier*Interval of inbound silence, tearing the
// connection down so the worker redials.
func TestWorkerKeepaliveWatchdogReconnectsOnSilence(t *testing.T) {
	var mu sync.Mutex
	var transports []*fakeTransport
	newTransport := func(cfg wsconn.Config) (Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		tr := newFakeTransport()
		transports = append(transports, tr)
		return tr, nil
	}

	adapter := testAdapter(func(domain.Frame) domain.Classification { return domain.Normal })
	adapter.Keepalive = &domain.Keepalive{Interval: 30 * time.Millisecond}

	w := NewWorker(WorkerConfig{
		ConnectionID:        "fake.0",
		Adapter:             adapter,
		MessageType:         domain.Trade,
		Channels:            []domain.Channel{"trade:BTC_USDT"},
		Sink:                SinkFunc(func(ctx context.Context, msg domain.Message) error { return nil }),
		Log:                 nopLogger{},
		Lock:                exchangelock.NewTable(),
		NewTransport:        newTransport,
		KeepaliveMultiplier: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transports) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
