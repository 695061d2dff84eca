// Package redis implements Redis caching for the Lentera LMS backend.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/lentera-edu/lentera-lms-backend/internal/application/query"
	"github.com/lentera-edu/lentera-lms-backend/pkg/circuitbreaker"
	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
	"github.com/lentera-edu/lentera-lms-backend/pkg/retry"
)

// KeyDashboard is the cache key for the admin dashboard payload.
const KeyDashboard = PrefixAnalytics + "dashboard"

// AnalyticsCache implements query.DashboardCache on top of Redis.
//
// Every operation goes through a circuit breaker: when Redis is down the
// breaker opens and all calls fail fast with ErrCacheMiss semantics, so the
// dashboard falls back to direct computation instead of waiting on timeouts.
type AnalyticsCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	ttl     time.Duration
	log     *logger.Logger
}

// NewAnalyticsCache creates an AnalyticsCache with the given TTL.
func NewAnalyticsCache(cache *Cache, ttl time.Duration, log *logger.Logger) *AnalyticsCache {
	if ttl <= 0 {
		ttl = TTLDashboard
	}

	onStateChange := func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.Component(name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	// A miss is a normal outcome, only real Redis errors trip the breaker.
	isFailure := func(err error) bool {
		return !errors.Is(err, ErrCacheMiss)
	}

	breaker := circuitbreaker.CacheBreaker(onStateChange, isFailure)

	return &AnalyticsCache{
		cache:   cache,
		breaker: breaker,
		retrier: retry.CacheRetrier(),
		ttl:     ttl,
		log:     log,
	}
}

// GetDashboard returns the cached dashboard payload or ErrCacheMiss.
func (c *AnalyticsCache) GetDashboard(ctx context.Context) (*query.GetAdminAnalyticsResult, error) {
	var result query.GetAdminAnalyticsResult

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Get(ctx, KeyDashboard, &result)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	return &result, nil
}

// SetDashboard stores the dashboard payload with the configured TTL.
// Transient write failures are retried once before giving up.
func (c *AnalyticsCache) SetDashboard(ctx context.Context, r *query.GetAdminAnalyticsResult) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.cache.Set(ctx, KeyDashboard, r, c.ttl); err != nil {
				return retry.Retryable(err)
			}
			return nil
		})
	})
}

// InvalidateDashboard drops the cached payload. Called after every new
// recorded attempt so the next dashboard read reflects it.
func (c *AnalyticsCache) InvalidateDashboard(ctx context.Context) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Delete(ctx, KeyDashboard)
	})
}

// BreakerState reports the current circuit breaker state, for health checks.
func (c *AnalyticsCache) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
