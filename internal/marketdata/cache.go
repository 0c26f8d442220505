package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ksred/klear-datagen/internal/types"
)

const (
	DefaultTTL    = 5 * time.Minute
	DefaultPacing = 200 * time.Millisecond
)

// Options tunes a Cache. Zero values select the defaults.
type Options struct {
	TTL    time.Duration
	Pacing time.Duration
	Store  SnapshotStore
	Now    func() time.Time
}

// Cache hands out market snapshots, preferring a fresh cached one, then a
// live quote, then the fixed reference table. It never fails.
type Cache struct {
	source  QuoteSource
	store   SnapshotStore
	ttl     time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	now     func() time.Time
}

func NewCache(source QuoteSource, opts Options) *Cache {
	c := &Cache{
		source: source,
		store:  opts.Store,
		ttl:    opts.TTL,
		now:    opts.Now,
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	pacing := opts.Pacing
	if pacing == 0 {
		pacing = DefaultPacing
	}
	if pacing < 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Every(pacing), 1)
	}
	return c
}

// GetSnapshot returns a snapshot for symbol. Concurrent misses for the
// same symbol share one live fetch.
func (c *Cache) GetSnapshot(ctx context.Context, symbol string) types.MarketSnapshot {
	logger := log.With().Str("component", "market_cache").Str("symbol", symbol).Logger()

	if snap, ok := c.fresh(ctx, symbol); ok {
		logger.Debug().Msg("cache hit")
		return snap
	}

	v, _, _ := c.group.Do(symbol, func() (interface{}, error) {
		if snap, ok := c.fresh(ctx, symbol); ok {
			return snap, nil
		}

		snap, err := c.fetchLive(ctx, symbol)
		if err != nil {
			fallback := FallbackSnapshot(symbol, c.now())
			logger.Warn().
				Err(err).
				Str("price", fallback.Price.StringFixed(types.CurrencyScale)).
				Msg("live quote unavailable, using fallback reference data")
			return fallback, nil
		}

		if err := c.store.Put(ctx, Entry{Snapshot: snap, StoredAt: c.now()}); err != nil {
			logger.Error().Err(err).Msg("failed to cache snapshot")
		}
		logger.Info().
			Str("price", snap.Price.String()).
			Str("exchange", snap.Exchange).
			Msg("fetched live market data")
		return snap, nil
	})
	return v.(types.MarketSnapshot)
}

// GetSnapshots fetches symbols one after another in input order. Live
// calls are spaced by the pacing interval.
func (c *Cache) GetSnapshots(ctx context.Context, symbols []string) *types.SnapshotSet {
	set := types.NewSnapshotSet()
	for _, symbol := range symbols {
		set.Put(c.GetSnapshot(ctx, symbol))
	}
	return set
}

func (c *Cache) fresh(ctx context.Context, symbol string) (types.MarketSnapshot, bool) {
	e, ok, err := c.store.Get(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("snapshot store read failed")
		return types.MarketSnapshot{}, false
	}
	if !ok || c.now().Sub(e.StoredAt) >= c.ttl {
		return types.MarketSnapshot{}, false
	}
	return e.Snapshot, true
}

func (c *Cache) fetchLive(ctx context.Context, symbol string) (types.MarketSnapshot, error) {
	if c.source == nil {
		return types.MarketSnapshot{}, ErrQuoteUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return types.MarketSnapshot{}, err
	}
	quote, err := c.source.Fetch(ctx, symbol)
	if err != nil {
		return types.MarketSnapshot{}, err
	}
	return snapshotFromQuote(symbol, quote, c.now()), nil
}
