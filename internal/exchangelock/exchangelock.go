// Package exchangelock provides the process-wide registry of per-exchange
// locks that serializes connection attempts against any one venue, so two
// Crawl calls for the same exchange never dial concurrently and trip the
// venue's own rate limiting against each other.
package exchangelock

import (
	"context"
	"sync"
	"time"

	"github.com/fd1az/market-crawler/internal/circuitbreaker"
)

type entry struct {
	mu sync.Mutex
	cb *circuitbreaker.CircuitBreaker[struct{}]
}

// Table is the global exchange lock table: one mutex and one circuit
// breaker per exchange name, created lazily on first use.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
	// BreakerTimeout overrides circuitbreaker.DefaultConfig's open-state
	// duration; zero keeps the default.
	BreakerTimeout time.Duration
}

// global is the process-wide table every adapter shares.
var global = NewTable()

// NewTable builds an empty table. Tests should use their own Table instead
// of the process-wide global to stay isolated from other tests.
func NewTable() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Global returns the process-wide lock table.
func Global() *Table {
	return global
}

func (t *Table) entryFor(exchange string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[exchange]
	if !ok {
		cfg := circuitbreaker.DefaultConfig("exchangelock." + exchange)
		if t.BreakerTimeout > 0 {
			cfg.Timeout = t.BreakerTimeout
		}
		e = &entry{cb: circuitbreaker.New[struct{}](cfg)}
		t.entries[exchange] = e
	}
	return e
}

// Connect serializes one connection attempt against exchange: it holds the
// exchange's mutex for the duration of fn and routes fn through the
// exchange's circuit breaker, so a venue that's failing repeatedly starts
// rejecting new dial attempts fast instead of piling up reconnect storms.
func (t *Table) Connect(ctx context.Context, exchange string, fn func(ctx context.Context) error) error {
	e := t.entryFor(exchange)
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
