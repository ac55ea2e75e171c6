package balance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("fresh value served without fetch", func(t *testing.T) {
		var calls atomic.Int64
		clock := time.Unix(1000, 0)

		cache := NewCache(Config{
			TTL: 10 * time.Second,
			Now: func() time.Time { return clock },
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				calls.Add(1)
				return models.AmountFromMinor(500), nil
			},
		})

		first, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Equal(t, int64(500), first.MinorUnits())

		second, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, int64(1), calls.Load(), "fresh cache hit must not fetch")
	})

	t.Run("expired value refetched", func(t *testing.T) {
		var calls atomic.Int64
		clock := time.Unix(1000, 0)

		cache := NewCache(Config{
			TTL: 10 * time.Second,
			Now: func() time.Time { return clock },
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				calls.Add(1)
				return models.AmountFromMinor(100 * calls.Load()), nil
			},
		})

		_, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)

		clock = clock.Add(11 * time.Second)

		refreshed, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Equal(t, int64(200), refreshed.MinorUnits())
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("single flight per address", func(t *testing.T) {
		var calls atomic.Int64
		started := make(chan struct{})
		release := make(chan struct{})

		cache := NewCache(Config{
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				calls.Add(1)
				close(started)
				<-release
				return models.AmountFromMinor(700), nil
			},
		})

		var wg sync.WaitGroup
		results := make([]models.Amount, 2)

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0], _ = cache.Balance(t.Context(), "0xabc")
		}()

		// Second caller joins only after the first fetch is in flight
		<-started
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[1], _ = cache.Balance(t.Context(), "0xabc")
		}()

		// Give the second goroutine a beat to enter the flight group
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int64(1), calls.Load(), "concurrent callers must share one fetch")
		require.Equal(t, results[0], results[1])
	})

	t.Run("failed refresh keeps stale value", func(t *testing.T) {
		var fail atomic.Bool
		clock := time.Unix(1000, 0)

		cache := NewCache(Config{
			TTL:    10 * time.Second,
			Now:    func() time.Time { return clock },
			Logger: logger.NewNoOp(),
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				if fail.Load() {
					return models.Amount{}, errors.New("rpc unavailable")
				}
				return models.AmountFromMinor(4200), nil
			},
		})

		good, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)

		fail.Store(true)
		clock = clock.Add(time.Minute)

		stale, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err, "stale value must be served without error")
		require.Equal(t, good, stale)
	})

	t.Run("failed forced refresh keeps stale value", func(t *testing.T) {
		var fail atomic.Bool
		clock := time.Unix(1000, 0)

		cache := NewCache(Config{
			TTL:    10 * time.Second,
			Now:    func() time.Time { return clock },
			Logger: logger.NewNoOp(),
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				if fail.Load() {
					return models.Amount{}, errors.New("rpc unavailable")
				}
				return models.AmountFromMinor(4200), nil
			},
		})

		good, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)

		// The poller path: a forced refresh fails mid-TTL
		fail.Store(true)

		refreshed, err := cache.Refresh(t.Context(), "0xabc")
		require.NoError(t, err, "stale value must survive a failed forced refresh")
		require.Equal(t, good, refreshed)

		stale, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Equal(t, good, stale)
	})

	t.Run("failure without stale value propagates", func(t *testing.T) {
		cache := NewCache(Config{
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				return models.Amount{}, errors.New("rpc unavailable")
			},
		})

		_, err := cache.Balance(t.Context(), "0xabc")

		require.Error(t, err)
	})

	t.Run("refresh bypasses freshness", func(t *testing.T) {
		var calls atomic.Int64
		clock := time.Unix(1000, 0)

		cache := NewCache(Config{
			TTL: time.Hour,
			Now: func() time.Time { return clock },
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				calls.Add(1)
				return models.AmountFromMinor(100), nil
			},
		})

		_, err := cache.Balance(t.Context(), "0xabc")
		require.NoError(t, err)

		_, err = cache.Refresh(t.Context(), "0xabc")
		require.NoError(t, err)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("addresses cached independently", func(t *testing.T) {
		cache := NewCache(Config{
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				if address == "0xaaa" {
					return models.AmountFromMinor(100), nil
				}
				return models.AmountFromMinor(200), nil
			},
		})

		a, err := cache.Balance(t.Context(), "0xaaa")
		require.NoError(t, err)
		b, err := cache.Balance(t.Context(), "0xbbb")
		require.NoError(t, err)

		require.Equal(t, int64(100), a.MinorUnits())
		require.Equal(t, int64(200), b.MinorUnits())
	})
}

func TestPoller(t *testing.T) {
	t.Parallel()

	t.Run("refreshes on interval and stops on cancel", func(t *testing.T) {
		var calls atomic.Int64

		cache := NewCache(Config{
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				calls.Add(1)
				return models.AmountFromMinor(100), nil
			},
		})

		poller := &Poller{
			Interval: 10 * time.Millisecond,
			Address:  func() string { return "0xabc" },
			Cache:    cache,
			Logger:   logger.NewNoOp(),
		}

		ctx, cancel := context.WithCancel(t.Context())
		stopped := poller.Run(ctx)

		require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

		cancel()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("poller did not stop after context cancellation")
		}

		// No further refreshes after teardown
		settled := calls.Load()
		time.Sleep(30 * time.Millisecond)
		require.Equal(t, settled, calls.Load())
	})

	t.Run("skips ticks without an active address", func(t *testing.T) {
		var calls atomic.Int64

		cache := NewCache(Config{
			Fetch: func(ctx context.Context, address string) (models.Amount, error) {
				calls.Add(1)
				return models.Amount{}, nil
			},
		})

		poller := &Poller{
			Interval: 5 * time.Millisecond,
			Address:  func() string { return "" },
			Cache:    cache,
			Logger:   logger.NewNoOp(),
		}

		ctx, cancel := context.WithCancel(t.Context())
		stopped := poller.Run(ctx)

		time.Sleep(30 * time.Millisecond)
		cancel()
		<-stopped

		require.Zero(t, calls.Load())
	})
}
