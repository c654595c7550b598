// Package app wires the domain model to a running engine: the subscription
// planner, connection worker, symbol refresher, and the public Crawl* facade.
package app

import (
	"context"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

// Sink receives every normalized Message the engine produces. Implementations
// must not block for long; a slow sink throttles every connection worker
// feeding it.
type Sink interface {
	Accept(ctx context.Context, msg domain.Message) error
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(ctx context.Context, msg domain.Message) error

func (f SinkFunc) Accept(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}

// Transport is the port a Connection Worker drives; internal/wsconn
// satisfies it against a real WebSocket, tests satisfy it against a fake.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg []byte) error
	Messages() <-chan []byte
	Close() error
	IsConnected() bool
}

// CatalogClient resolves which pairs exist for an exchange/market type, used
// by Crawl calls passed no explicit pair list and by the Symbol Refresher.
type CatalogClient interface {
	Pairs(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error)
}

// Handle is returned by every Crawl* call: a handle on a running crawl that
// the caller can wait on or inspect for the terminal error.
type Handle interface {
	Done() <-chan struct{}
	Err() error
}

// handle is the concrete Handle implementation shared by every crawl kind.
type handle struct {
	done chan struct{}
	err  error
}

func newHandle() *handle {
	return &handle{done: make(chan struct{})}
}

func (h *handle) finish(err error) {
	h.err = err
	close(h.done)
}

func (h *handle) Done() <-chan struct{} { return h.done }
func (h *handle) Err() error            { return h.err }
