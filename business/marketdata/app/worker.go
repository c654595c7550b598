package app

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/apperror"
	"github.com/fd1az/market-crawler/internal/exchangelock"
	"github.com/fd1az/market-crawler/internal/logger"
	"github.com/fd1az/market-crawler/internal/wsconn"
)

// NewTransport is the factory the worker uses to build a fresh Transport per
// connect/reconnect. Tests substitute a fake to avoid real dialing.
type NewTransport func(cfg wsconn.Config) (Transport, error)

func defaultNewTransport(cfg wsconn.Config) (Transport, error) {
	return wsconn.New(cfg)
}

// WorkerConfig parameterizes one Connection Worker: one adapter-described
// connection carrying one batch of channels for one message type.
type WorkerConfig struct {
	ConnectionID string
	Adapter      domain.Adapter
	MessageType  domain.MessageType
	Channels     []domain.Channel
	Sink         Sink
	Log          logger.LoggerInterface
	Lock         *exchangelock.Table
	NewTransport NewTransport
	// Duration bounds the crawl's lifetime; zero means run until ctx is
	// cancelled.
	Duration time.Duration
	// KeepaliveMultiplier sets how many keepalive intervals of silence are
	// tolerated before the watchdog declares the connection dead. Defaults
	// to 2 when unset.
	KeepaliveMultiplier int
}

// Worker drives one connection end to end: connect, subscribe, read loop,
// keepalive watchdog, reconnect-on-drop.
type Worker struct {
	cfg WorkerConfig

	mu        sync.Mutex // guards subs and transport
	subs      []*domain.Subscription
	transport Transport

	lastActivity time.Time
}

// NewWorker builds a Worker with Pending subscriptions for every channel.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.NewTransport == nil {
		cfg.NewTransport = defaultNewTransport
	}
	if cfg.Lock == nil {
		cfg.Lock = exchangelock.Global()
	}
	if cfg.KeepaliveMultiplier <= 0 {
		cfg.KeepaliveMultiplier = 2
	}

	subs := make([]*domain.Subscription, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		subs = append(subs, &domain.Subscription{
			ConnectionID: cfg.ConnectionID,
			Channel:      ch,
			State:        domain.Pending,
		})
	}

	return &Worker{cfg: cfg, subs: subs}
}

// Run blocks until ctx is cancelled, Duration elapses, or a fatal error is
// hit. It reconnects on transient errors under the adapter's pacing.
func (w *Worker) Run(ctx context.Context) error {
	if w.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Duration)
		defer cancel()
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := w.runOnce(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		var appErr *apperror.AppError
		if asAppError(err, &appErr) && appErr.IsFatal() {
			w.cfg.Log.Error(ctx, "connection worker stopping on fatal error",
				"connection_id", w.cfg.ConnectionID, "exchange", w.cfg.Adapter.Exchange, "error", err)
			return err
		}

		w.cfg.Log.Warn(ctx, "connection worker reconnecting after error",
			"connection_id", w.cfg.ConnectionID, "exchange", w.cfg.Adapter.Exchange,
			"error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		w.mu.Lock()
		for _, s := range w.subs {
			s.State = domain.Pending
		}
		w.mu.Unlock()
	}
}

// runOnce opens one connection, subscribes every channel, and pumps frames
// until the connection drops or ctx ends.
func (w *Worker) runOnce(ctx context.Context) error {
	url := w.cfg.Adapter.URLFor(w.cfg.MessageType)

	var transport Transport
	connErr := w.cfg.Lock.Connect(ctx, w.cfg.Adapter.Exchange, func(ctx context.Context) error {
		cfg := wsconn.DefaultConfig(url, w.cfg.ConnectionID)
		t, err := w.cfg.NewTransport(cfg)
		if err != nil {
			return err
		}
		if err := t.Connect(ctx); err != nil {
			return err
		}
		transport = t
		return nil
	})
	if connErr != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(w.cfg.Adapter.Exchange),
			apperror.WithCause(connErr))
	}
	w.mu.Lock()
	w.transport = transport
	w.mu.Unlock()
	defer func() {
		transport.Close()
		w.mu.Lock()
		if w.transport == transport {
			w.transport = nil
		}
		w.mu.Unlock()
	}()

	if err := w.subscribeAll(ctx, transport); err != nil {
		return err
	}

	if w.cfg.Adapter.ConnectInterval > 0 {
		time.Sleep(w.cfg.Adapter.ConnectInterval)
	}

	w.lastActivity = time.Now()
	return w.pump(ctx, transport)
}

// subscribeAll sends the subscribe command(s) for every channel in the
// worker's batch, honoring the adapter's SendInterval between writes and the
// Channel pass-through rule for raw caller-supplied commands. Used on every
// (re)connect so a redial resends the worker's full, possibly-resynced set.
func (w *Worker) subscribeAll(ctx context.Context, t Transport) error {
	w.mu.Lock()
	channels := make([]domain.Channel, len(w.subs))
	for i, s := range w.subs {
		channels[i] = s.Channel
	}
	w.mu.Unlock()

	if err := w.sendChannelCmds(ctx, t, channels, true); err != nil {
		return err
	}

	w.mu.Lock()
	for _, s := range w.subs {
		s.State = domain.Sent
	}
	w.mu.Unlock()
	return nil
}

// sendChannelCmds sends subscribe (or unsubscribe) commands for channels on
// the given transport. Pass-through channels carry their own literal wire
// command and only have one direction: they are sent on subscribe and simply
// dropped from tracking on unsubscribe, since there's no generic way to
// derive their opposite command.
func (w *Worker) sendChannelCmds(ctx context.Context, t Transport, channels []domain.Channel, subscribe bool) error {
	var passthrough []domain.Channel
	var normal []domain.Channel
	for _, ch := range channels {
		if ch.IsPassThrough() {
			passthrough = append(passthrough, ch)
		} else {
			normal = append(normal, ch)
		}
	}

	send := func(cmd string) error {
		if err := t.Send(ctx, []byte(cmd)); err != nil {
			return apperror.New(apperror.CodeSubscribeFailed,
				apperror.WithContext(w.cfg.Adapter.Exchange), apperror.WithCause(err))
		}
		if w.cfg.Adapter.SendInterval > 0 {
			time.Sleep(w.cfg.Adapter.SendInterval)
		}
		return nil
	}

	if subscribe {
		for _, ch := range passthrough {
			if err := send(string(ch)); err != nil {
				return err
			}
		}
	}

	if len(normal) > 0 {
		if w.cfg.Adapter.SubscribeCmdBuilder == nil {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext(w.cfg.Adapter.Exchange+": adapter has no SubscribeCmdBuilder"))
		}
		cmds, err := w.cfg.Adapter.SubscribeCmdBuilder(normal, subscribe)
		if err != nil {
			return apperror.New(apperror.CodeSubscribeFailed,
				apperror.WithContext(w.cfg.Adapter.Exchange), apperror.WithCause(err))
		}
		for _, cmd := range cmds {
			if err := send(cmd); err != nil {
				return err
			}
		}
	}

	return nil
}

// ActiveChannels returns a snapshot of the channels this worker currently
// carries, for a caller deciding whether it has spare MaxSubsPerConnection
// capacity for more.
func (w *Worker) ActiveChannels() []domain.Channel {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.Channel, len(w.subs))
	for i, s := range w.subs {
		out[i] = s.Channel
	}
	return out
}

// Resubscribe adds and removes channels from this worker's live batch. If the
// worker currently holds a connection, the adapter's subscribe/unsubscribe
// commands are sent immediately; either way the batch itself is updated so a
// future reconnect's subscribeAll carries the resynced set.
func (w *Worker) Resubscribe(ctx context.Context, add, remove []domain.Channel) error {
	w.mu.Lock()
	if len(remove) > 0 {
		w.subs = removeChannels(w.subs, remove)
	}
	var added []*domain.Subscription
	for _, ch := range add {
		if hasChannel(w.subs, ch) {
			continue
		}
		s := &domain.Subscription{ConnectionID: w.cfg.ConnectionID, Channel: ch, State: domain.Pending}
		w.subs = append(w.subs, s)
		added = append(added, s)
	}
	t := w.transport
	w.mu.Unlock()

	if t == nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(w.cfg.Adapter.Exchange+": resubscribe requested with no live connection, queued for next reconnect"),
			apperror.WithSeverity(apperror.SeverityIgnorable))
	}

	if len(remove) > 0 {
		if err := w.sendChannelCmds(ctx, t, remove, false); err != nil {
			return err
		}
	}
	if len(added) == 0 {
		return nil
	}
	addChannels := make([]domain.Channel, len(added))
	for i, s := range added {
		addChannels[i] = s.Channel
	}
	if err := w.sendChannelCmds(ctx, t, addChannels, true); err != nil {
		return err
	}

	w.mu.Lock()
	for _, s := range added {
		s.State = domain.Sent
	}
	w.mu.Unlock()
	return nil
}

func removeChannels(subs []*domain.Subscription, remove []domain.Channel) []*domain.Subscription {
	removeSet := make(map[domain.Channel]struct{}, len(remove))
	for _, ch := range remove {
		removeSet[ch] = struct{}{}
	}
	out := subs[:0]
	for _, s := range subs {
		if _, ok := removeSet[s.Channel]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func hasChannel(subs []*domain.Subscription, ch domain.Channel) bool {
	for _, s := range subs {
		if s.Channel == ch {
			return true
		}
	}
	return false
}

// pump reads frames until the transport drops, classifying and routing each
// one. A keepalive watchdog runs alongside and fires a synthetic error if no
// inbound frame is observed within KeepaliveMultiplier times the adapter's
// keepalive interval; outbound pings do not count as activity.
func (w *Worker) pump(ctx context.Context, t Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	if w.cfg.Adapter.Keepalive != nil {
		go w.keepaliveLoop(ctx, t, errCh)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case data, ok := <-t.Messages():
			if !ok {
				return apperror.New(apperror.CodeWebSocketClosed,
					apperror.WithContext(w.cfg.Adapter.Exchange))
			}
			w.lastActivity = time.Now()
			if err := w.handleFrame(ctx, data); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) keepaliveLoop(ctx context.Context, t Transport, errCh chan<- error) {
	ka := w.cfg.Adapter.Keepalive
	ticker := time.NewTicker(ka.Interval)
	defer ticker.Stop()

	watchdog := time.NewTicker(ka.Interval)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ka.Payload != "" {
				if err := t.Send(ctx, []byte(ka.Payload)); err != nil {
					select {
					case errCh <- apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err)):
					default:
					}
					return
				}
			}
		case <-watchdog.C:
			if time.Since(w.lastActivity) > time.Duration(w.cfg.KeepaliveMultiplier)*ka.Interval {
				select {
				case errCh <- apperror.New(apperror.CodeWebSocketConnectionError,
					apperror.WithContext("keepalive watchdog: no activity")):
				default:
				}
				return
			}
		}
	}
}

// handleFrame classifies a raw inbound frame and forwards it if it carries
// market data.
func (w *Worker) handleFrame(ctx context.Context, raw []byte) error {
	payload := raw
	if looksGzipped(raw) {
		decompressed, err := gunzip(raw)
		if err != nil {
			w.cfg.Log.Warn(ctx, "failed to gunzip frame, forwarding raw",
				"exchange", w.cfg.Adapter.Exchange, "error", err)
		} else {
			payload = decompressed
		}
	}

	frame := domain.Frame{Data: payload}
	class := domain.Normal
	if w.cfg.Adapter.Classify != nil {
		class = w.cfg.Adapter.Classify(frame)
	}

	switch class {
	case domain.Pong, domain.Misc:
		return nil
	case domain.Reconnect:
		return apperror.New(apperror.CodeWebSocketReconnecting,
			apperror.WithContext(w.cfg.Adapter.Exchange),
			apperror.WithSeverity(apperror.SeverityTransient))
	case domain.Error:
		return apperror.New(apperror.CodeExchangeFatalFrame,
			apperror.WithContext(fmt.Sprintf("%s: %s", w.cfg.Adapter.Exchange, string(payload))))
	}

	msg := domain.Message{
		Exchange:    w.cfg.Adapter.Exchange,
		MarketType:  w.cfg.Adapter.MarketType,
		MessageType: w.cfg.MessageType,
		ReceivedAt:  time.Now(),
		Payload:     string(payload),
	}
	if err := w.cfg.Sink.Accept(ctx, msg); err != nil {
		w.cfg.Log.Warn(ctx, "sink rejected message", "exchange", w.cfg.Adapter.Exchange, "error", err)
	}
	return nil
}

func looksGzipped(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func gunzip(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func asAppError(err error, target **apperror.AppError) bool {
	ae, ok := err.(*apperror.AppError)
	if !ok {
		return false
	}
	*target = ae
	return true
}
