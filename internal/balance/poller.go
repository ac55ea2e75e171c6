package balance

import (
	"context"
	"time"

	"github.com/cashtide/wallet/internal/logger"
)

// Poller refreshes the cache for the active account's address on a fixed
// interval while the consuming view is alive. Cancelling the context is the
// view teardown: the ticker stops and no refresh result lands afterwards.
type Poller struct {
	Interval time.Duration

	// Address returns the address to poll, empty while no account is active.
	Address func() string

	Cache  *Cache
	Logger logger.Logger
}

// Run starts polling and returns a channel closed once the poller has fully
// stopped after context cancellation.
func (p *Poller) Run(ctx context.Context) <-chan struct{} {
	interval := p.Interval
	if interval == 0 {
		interval = DefaultTTL
	}

	idleStopped := make(chan struct{})
	p.Logger.Debug("Starting balance poller", "interval", interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.Logger.Debug("Balance poller stopped by context")
				return

			case <-ticker.C:
				address := p.Address()
				if address == "" {
					continue
				}

				if _, err := p.Cache.Refresh(ctx, address); err != nil {
					// Already logged by the cache, nothing to re-raise here
					continue
				}
			}
		}
	}()

	return idleStopped
}
