package balance

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

// DefaultTTL is how long a fetched balance counts as fresh. It doubles as the
// polling interval.
const DefaultTTL = 10 * time.Second

// FetchFunc loads the current on-chain balance for an address.
type FetchFunc func(ctx context.Context, address string) (models.Amount, error)

type Config struct {
	// TTL for cached values. DefaultTTL when zero.
	TTL time.Duration

	// Now is the clock. time.Now when nil; injectable for tests.
	Now func() time.Time

	Fetch  FetchFunc
	Logger logger.Logger
}

// Cache holds the latest known balance per address. Reads within TTL hit the
// cache; concurrent misses for one address share a single outbound fetch.
// A failed refresh keeps the previous value available instead of surfacing an
// error to the view.
type Cache struct {
	ttl    time.Duration
	now    func() time.Time
	fetch  FetchFunc
	logger logger.Logger

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	amount    models.Amount
	fetchedAt time.Time
}

func NewCache(cfg Config) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOp()
	}

	return &Cache{
		ttl:     cfg.TTL,
		now:     cfg.Now,
		fetch:   cfg.Fetch,
		logger:  cfg.Logger,
		entries: map[string]entry{},
	}
}

// Balance returns the balance for address, fetching when the cached value is
// missing or older than TTL.
func (c *Cache) Balance(ctx context.Context, address string) (models.Amount, error) {
	if amount, ok := c.fresh(address); ok {
		return amount, nil
	}
	return c.refresh(ctx, address)
}

// Refresh fetches regardless of freshness. The on-demand path for views that
// must not show a stale number (e.g. right after a transfer). The cached entry
// is only replaced on fetch success, so a failure here still leaves the
// previous value available.
func (c *Cache) Refresh(ctx context.Context, address string) (models.Amount, error) {
	return c.refresh(ctx, address)
}

func (c *Cache) fresh(address string) (models.Amount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[address]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return models.Amount{}, false
	}
	return e.amount, true
}

func (c *Cache) refresh(ctx context.Context, address string) (models.Amount, error) {
	v, err, _ := c.group.Do(address, func() (any, error) {
		amount, err := c.fetch(ctx, address)
		if err != nil {
			return models.Amount{}, err
		}

		c.mu.Lock()
		c.entries[address] = entry{amount: amount, fetchedAt: c.now()}
		c.mu.Unlock()

		return amount, nil
	})

	if err != nil {
		// Stale-but-available: keep showing the last good value
		c.mu.Lock()
		stale, ok := c.entries[address]
		c.mu.Unlock()

		c.logger.Warn("Balance fetch failed", "address", address, "stale_available", ok, "error", err)
		if ok {
			return stale.amount, nil
		}
		return models.Amount{}, err
	}

	return v.(models.Amount), nil
}
