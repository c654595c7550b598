// Package adapters implements the per-venue Adapter descriptors the engine
// drives: URL, subscribe-command rendering, frame classification and
// pacing, one file per exchange.
package adapters

import (
	"fmt"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

// errUnsupported renders a uniform "exchange does not have this market
// type/message type" error, matching the panic messages the original
// crawler logs for unsupported combinations.
func errUnsupported(exchange string, marketType domain.MarketType, messageType domain.MessageType) error {
	return fmt.Errorf("%s does not support %s market type for %s", exchange, marketType, messageType)
}

// wildcardIfEmpty returns ["*"] when pairs is empty, the convention venues
// that support an all-symbols subscription use.
func wildcardIfEmpty(pairs []string) []string {
	if len(pairs) == 0 {
		return []string{"*"}
	}
	return pairs
}
