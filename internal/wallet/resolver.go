package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/cashtide/wallet/internal/apperrors"
	"github.com/cashtide/wallet/internal/backend"
	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

type resolverBackend interface {
	GetUserByPhone(ctx context.Context, phone string) (models.Account, error)
	PregenerateUser(ctx context.Context, phone string) (models.Account, error)
}

// Resolver maps a canonical phone identifier to a backend account,
// provisioning a placeholder when the phone has never onboarded. Resolved
// accounts are memoized so one flow never resolves the same phone twice;
// phone uniqueness across clients is the backend's contract.
type Resolver struct {
	backend resolverBackend
	logger  logger.Logger

	mu    sync.Mutex
	known map[string]models.Account
}

func NewResolver(b resolverBackend, l logger.Logger) *Resolver {
	return &Resolver{
		backend: b,
		logger:  l,
		known:   map[string]models.Account{},
	}
}

// Resolve returns the account behind a phone identifier.
// Failures other than "not found" wrap apperrors.ErrRecipientResolution and
// are not retried here; retrying is the user's call.
func (r *Resolver) Resolve(ctx context.Context, phone string) (models.Account, error) {
	r.mu.Lock()
	memo, ok := r.known[phone]
	r.mu.Unlock()
	if ok {
		return memo, nil
	}

	account, err := r.backend.GetUserByPhone(ctx, phone)

	switch {
	case err == nil:

	case backend.IsNotFound(err):
		r.logger.Info("Recipient not registered, pre-generating account", "phone", phone)
		account, err = r.backend.PregenerateUser(ctx, phone)
		if err != nil {
			return models.Account{}, fmt.Errorf("%w: pregenerate failed: %w", apperrors.ErrRecipientResolution, err)
		}

	default:
		return models.Account{}, fmt.Errorf("%w: lookup failed: %w", apperrors.ErrRecipientResolution, err)
	}

	r.mu.Lock()
	r.known[phone] = account
	r.mu.Unlock()

	return account, nil
}
