// Package fxrate resolves USD-priced rows to satoshis against a live
// exchange rate. The rate is cached in Redis with a short TTL so a large
// batch converts every row at a single coherent price.
package fxrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"satpay/internal/batch/models"
	"satpay/internal/batch/ports"
	dErrors "satpay/pkg/domain-errors"
)

const cacheKey = "fxrate:sats_per_usd"

// Resolver fills AmountSats on USD rows.
type Resolver struct {
	source ports.RateSource
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithCache sets the Redis client used for rate caching. Without it every
// Resolve call hits the source.
func WithCache(cache *redis.Client, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = cache
		r.ttl = ttl
	}
}

func New(source ports.RateSource, opts ...Option) (*Resolver, error) {
	if source == nil {
		return nil, fmt.Errorf("rate source is required")
	}
	r := &Resolver{source: source}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve fills AmountSats for every USD row in place. Rows already priced in
// sats are untouched. One rate is used for the whole batch.
func (r *Resolver) Resolve(ctx context.Context, records []models.ParsedRecipient) error {
	needsRate := false
	for _, rec := range records {
		if rec.AmountSats == nil {
			needsRate = true
			break
		}
	}
	if !needsRate {
		return nil
	}

	rate, err := r.rate(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not fetch exchange rate")
	}

	for i := range records {
		if records[i].AmountSats != nil {
			continue
		}
		sats := int64(math.Round(records[i].RequestedAmount * rate))
		records[i].AmountSats = &sats
	}
	return nil
}

func (r *Resolver) rate(ctx context.Context) (float64, error) {
	if r.cache != nil {
		val, err := r.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if rate, perr := strconv.ParseFloat(val, 64); perr == nil && rate > 0 {
				return rate, nil
			}
		} else if !errors.Is(err, redis.Nil) && r.logger != nil {
			r.logger.WarnContext(ctx, "fx cache read failed", "error", err)
		}
	}

	rate, err := r.source.SatsPerUSD(ctx)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, fmt.Errorf("rate source returned non-positive rate %f", rate)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, strconv.FormatFloat(rate, 'f', -1, 64), r.ttl).Err(); err != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "fx cache write failed", "error", err)
		}
	}
	return rate, nil
}
