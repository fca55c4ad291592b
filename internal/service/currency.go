// Package service implements the business logic behind the API handlers.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/config"
	"github.com/ninjashari/expense-manager-api/internal/infra/observability"
	"github.com/ninjashari/expense-manager-api/internal/infra/resilience"
	"github.com/ninjashari/expense-manager-api/internal/port"
)

var currencyTracer = otel.Tracer("service/currency")

const rateCacheName = "rates"

// Rates outside this range indicate a provider glitch and are rejected
// before they can poison the cache.
const (
	minSaneRate = 0.0001
	maxSaneRate = 10000.0
)

// fallbackRates are approximate static rates used when the provider is
// unreachable and the cache is cold. Keys are "BASE-TARGET".
var fallbackRates = map[string]float64{
	"USD-INR": 74.5,
	"USD-EUR": 0.85,
	"USD-GBP": 0.75,
	"USD-JPY": 110.0,
	"USD-CAD": 1.25,
	"USD-AUD": 1.35,
	"EUR-INR": 87.6,
	"GBP-INR": 99.3,
}

// CurrencyService resolves exchange rates with caching, retries and static
// fallbacks. A resolution never fails: after every layer is exhausted it
// returns 1 and logs a warning.
type CurrencyService struct {
	fetcher port.RateFetcher
	cache   port.Cache[float64]
	retry   resilience.Config
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCurrencyService wires the resolver.
func NewCurrencyService(fetcher port.RateFetcher, cache port.Cache[float64], cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *CurrencyService {
	return &CurrencyService{
		fetcher: fetcher,
		cache:   cache,
		retry: resilience.Config{
			MaxRetries:     cfg.RateMaxRetries,
			InitialBackoff: cfg.RateInitialBackoff,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Rate resolves the conversion rate from base to target. Identity pairs
// short-circuit to 1 without any I/O or cache traffic.
func (s *CurrencyService) Rate(ctx context.Context, base, target string) (float64, error) {
	base = strings.ToUpper(base)
	target = strings.ToUpper(target)
	if base == target {
		return 1, nil
	}

	ctx, span := currencyTracer.Start(ctx, "currency.Rate")
	defer span.End()
	began := time.Now()
	defer func() { s.metrics.RecordRequestDuration("currency.rate", time.Since(began)) }()

	key := base + "-" + target
	if rate, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit(rateCacheName)
		return rate, nil
	}
	s.metrics.IncrCacheMiss(rateCacheName)

	var rate float64
	err := resilience.RetryWithBackoff(ctx, s.retry, func() error {
		r, err := s.fetcher.FetchRate(ctx, base, target)
		if err != nil {
			return err
		}
		if r < minSaneRate || r > maxSaneRate {
			return fmt.Errorf("rate %f for %s out of sane range", r, key)
		}
		rate = r
		return nil
	})
	if err == nil {
		s.cacheRate(base, target, rate)
		return rate, nil
	}

	s.metrics.IncrRateLookupError("exchange-rates")
	s.logger.Warn("rate lookup failed, using fallback",
		zap.String("pair", key), zap.Error(err))

	if fb, ok := s.fallback(base, target); ok {
		s.cacheRate(base, target, fb)
		return fb, nil
	}

	s.logger.Warn("no fallback rate, defaulting to 1", zap.String("pair", key))
	return 1, nil
}

// Convert converts an amount in minor units between currencies, rounding to
// the nearest minor unit.
func (s *CurrencyService) Convert(ctx context.Context, amount int64, base, target string) (int64, error) {
	rate, err := s.Rate(ctx, base, target)
	if err != nil {
		return 0, err
	}
	return roundHalfUp(float64(amount) * rate), nil
}

// cacheRate stores both directions so an inverse lookup is a cache hit.
func (s *CurrencyService) cacheRate(base, target string, rate float64) {
	s.cache.Set(base+"-"+target, rate)
	if rate != 0 {
		s.cache.Set(target+"-"+base, 1/rate)
	}
}

// fallback consults the static table directly, then its inverse.
func (s *CurrencyService) fallback(base, target string) (float64, bool) {
	if r, ok := fallbackRates[base+"-"+target]; ok {
		return r, true
	}
	if r, ok := fallbackRates[target+"-"+base]; ok && r != 0 {
		return 1 / r, true
	}
	return 0, false
}

// roundHalfUp rounds to the nearest integer, halves away from zero.
func roundHalfUp(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}
