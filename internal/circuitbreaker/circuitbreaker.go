// Package circuitbreaker wraps sony/gobreaker/v2 with the defaults this
// engine's connect paths share, so every call site configures a breaker the
// same way instead of hand-tuning gobreaker.Settings.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker is a type alias so call sites never import gobreaker
// directly.
type CircuitBreaker[T any] = gobreaker.CircuitBreaker[T]

// Config is gobreaker.Settings under a name this package owns, so
// DefaultConfig can set sane thresholds without every caller repeating them.
type Config = gobreaker.Settings

// DefaultConfig returns a Config tripping after 5 consecutive failures
// within a 60s window, staying open for 30s before probing half-open.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

// New builds a generic CircuitBreaker for a result type T from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](cfg)
}
