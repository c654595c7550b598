package app

import (
	"context"
	"sync"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/logger"
)

// workerPool tracks the live Workers spawned for one crawl so the Symbol
// Refresher can resync subscriptions against them as the catalog's pair set
// changes, instead of only wiring up the initial batch.
type workerPool struct {
	mu      sync.Mutex
	cap     int
	workers []*Worker
}

func newWorkerPool(maxSubsPerConnection int) *workerPool {
	return &workerPool{cap: maxSubsPerConnection}
}

func (p *workerPool) add(w *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers = append(p.workers, w)
}

func (p *workerPool) snapshot() []*Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// workerWithCapacity returns a worker that has room for one more channel, or
// nil if every existing worker is at MaxSubsPerConnection (or none exist
// yet). A non-positive cap means a single, uncapped worker carries
// everything.
func (p *workerPool) workerWithCapacity() *Worker {
	workers := p.snapshot()
	if p.cap <= 0 {
		if len(workers) > 0 {
			return workers[0]
		}
		return nil
	}
	for _, w := range workers {
		if len(w.ActiveChannels()) < p.cap {
			return w
		}
	}
	return nil
}

func channelsContain(channels []domain.Channel, ch domain.Channel) bool {
	for _, c := range channels {
		if c == ch {
			return true
		}
	}
	return false
}

// diffPairs reports which pairs were added and removed between two pair
// sets.
func diffPairs(prev, next []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, p := range prev {
		prevSet[p] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, p := range next {
		nextSet[p] = struct{}{}
	}
	for p := range nextSet {
		if _, ok := prevSet[p]; !ok {
			added = append(added, p)
		}
	}
	for p := range prevSet {
		if _, ok := nextSet[p]; !ok {
			removed = append(removed, p)
		}
	}
	return added, removed
}

// resyncPairs is the Symbol Refresher's onChange consumer: it turns an
// added/removed pair diff into channels via the same adapter factory the
// crawl started with, unsubscribes removed channels from whichever worker
// currently carries them, subscribes added channels onto a worker with spare
// MaxSubsPerConnection capacity, and opens new workers via startWorker for
// anything that doesn't fit.
func resyncPairs(
	ctx context.Context,
	factory domain.AdapterFactory,
	opts CrawlOptions,
	messageType domain.MessageType,
	adapter domain.Adapter,
	added, removed []string,
	pool *workerPool,
	startWorker func(batch []domain.Channel),
	log logger.LoggerInterface,
) {
	if len(removed) > 0 {
		_, removeChannels, err := factory(domain.BuildRequest{
			MarketType:      opts.MarketType,
			MessageType:     messageType,
			Pairs:           removed,
			IntervalSeconds: opts.IntervalSeconds,
		})
		if err != nil {
			log.Warn(ctx, "catalog refresh: failed to build channels for removed pairs",
				"exchange", opts.Exchange, "error", err)
		} else {
			for _, ch := range removeChannels {
				for _, w := range pool.snapshot() {
					if !channelsContain(w.ActiveChannels(), ch) {
						continue
					}
					if err := w.Resubscribe(ctx, nil, []domain.Channel{ch}); err != nil {
						log.Warn(ctx, "catalog refresh: unsubscribe failed",
							"exchange", opts.Exchange, "channel", string(ch), "error", err)
					}
					break
				}
			}
		}
	}

	if len(added) == 0 {
		return
	}

	_, addChannels, err := factory(domain.BuildRequest{
		MarketType:      opts.MarketType,
		MessageType:     messageType,
		Pairs:           added,
		IntervalSeconds: opts.IntervalSeconds,
	})
	if err != nil {
		log.Warn(ctx, "catalog refresh: failed to build channels for added pairs",
			"exchange", opts.Exchange, "error", err)
		return
	}

	var overflow []domain.Channel
	for _, ch := range addChannels {
		w := pool.workerWithCapacity()
		if w == nil {
			overflow = append(overflow, ch)
			continue
		}
		if err := w.Resubscribe(ctx, []domain.Channel{ch}, nil); err != nil {
			log.Warn(ctx, "catalog refresh: subscribe failed",
				"exchange", opts.Exchange, "channel", string(ch), "error", err)
		}
	}

	if len(overflow) == 0 {
		return
	}
	log.Info(ctx, "catalog refresh: opening additional connections for overflow pairs",
		"exchange", opts.Exchange, "channels", len(overflow))
	for _, batch := range Plan(overflow, adapter.MaxSubsPerConnection) {
		startWorker(batch)
	}
}
