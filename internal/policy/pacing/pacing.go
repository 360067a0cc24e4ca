// Package pacing implements pluggable strategies for throttling outbound
// requests. The pipeline only sees the crawler.Pacer port, so the fixed
// global delay can be swapped for a token bucket without touching it.
package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/logoscout/logoscout/internal/config"
	"github.com/logoscout/logoscout/internal/crawler"
)

// Fixed sleeps a constant interval before every request. This is a global
// delay, not per-host.
type Fixed struct {
	delay time.Duration
}

// NewFixed creates a fixed-delay pacer.
func NewFixed(delay time.Duration) *Fixed {
	return &Fixed{delay: delay}
}

// Wait blocks for the configured delay, respecting the context.
func (f *Fixed) Wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(f.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// TokenBucket paces requests through a shared token bucket.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a token bucket pacer. A non-positive rps disables
// throttling.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available, respecting the context.
func (b *TokenBucket) Wait(ctx context.Context) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	return nil
}

// FromConfig builds the configured pacing strategy.
func FromConfig(cfg config.PacingConfig) (crawler.Pacer, error) {
	switch cfg.Strategy {
	case config.PacingFixed:
		return NewFixed(time.Duration(cfg.DelayMs) * time.Millisecond), nil
	case config.PacingTokenBucket:
		return NewTokenBucket(cfg.RPS, cfg.Burst), nil
	default:
		return nil, fmt.Errorf("unknown pacing strategy %q", cfg.Strategy)
	}
}
