package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/internal/logger"
)

// RefreshInterval is the base period between catalog refreshes; jitter is
// added so many concurrent crawls don't all hit the catalog at once.
const RefreshInterval = time.Hour

// RefreshJitter bounds the random delay added to RefreshInterval.
const RefreshJitter = 5 * time.Minute

// Refresher periodically re-resolves an exchange's pair list from the
// Catalog and reports additions/removals to onChange, so a long-running
// crawl that was started with no explicit pair list picks up newly listed
// pairs without a restart.
type Refresher struct {
	Catalog    CatalogClient
	Exchange   string
	MarketType domain.MarketType
	Log        logger.LoggerInterface
	// Interval and Jitter default to RefreshInterval/RefreshJitter when unset.
	Interval time.Duration
	Jitter   time.Duration
}

// Run blocks, refreshing on Interval+jitter until ctx is cancelled, calling
// onChange whenever the pair set differs from the last refresh.
func (r *Refresher) Run(ctx context.Context, initial []string, onChange func(pairs []string)) {
	interval := r.Interval
	if interval <= 0 {
		interval = RefreshInterval
	}
	jitterBound := r.Jitter
	if jitterBound <= 0 {
		jitterBound = RefreshJitter
	}

	current := make(map[string]struct{}, len(initial))
	for _, p := range initial {
		current[p] = struct{}{}
	}

	for {
		jitter := time.Duration(rand.Int63n(int64(jitterBound)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval + jitter):
		}

		pairs, err := r.Catalog.Pairs(ctx, r.Exchange, r.MarketType)
		if err != nil {
			r.Log.Warn(ctx, "symbol refresh failed", "exchange", r.Exchange, "error", err)
			continue
		}

		next := make(map[string]struct{}, len(pairs))
		changed := false
		for _, p := range pairs {
			next[p] = struct{}{}
			if _, ok := current[p]; !ok {
				changed = true
			}
		}
		for p := range current {
			if _, ok := next[p]; !ok {
				changed = true
			}
		}

		if changed {
			r.Log.Info(ctx, "symbol set changed", "exchange", r.Exchange, "pair_count", len(pairs))
			current = next
			onChange(pairs)
		}
	}
}
