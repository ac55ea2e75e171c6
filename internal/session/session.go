package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cashtide/wallet/internal/localstore"
	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

// Credentials is what the identity provider hands back after a successful
// login: the backend account tied to the verified phone number, plus the
// provider's access token.
type Credentials struct {
	Account     models.Account
	AccessToken string
}

// Identity is the external identity provider. Its OTP and key ceremony live
// in the vendor SDK; the session only consumes the outcome.
type Identity interface {
	Login(ctx context.Context) (Credentials, error)
	Logout(ctx context.Context) error
}

// Session owns the client-side state for the authenticated user: the active
// account, the locally cached transaction and request lists, and the pending
// post-login redirect. All mutation goes through its methods.
type Session struct {
	identity Identity
	store    *localstore.Store
	logger   logger.Logger

	mu           sync.Mutex
	account      models.Account
	tokenExpiry  time.Time
	transactions []models.Transaction
	requests     []models.MoneyRequest
}

func New(identity Identity, store *localstore.Store, l logger.Logger) *Session {
	s := &Session{
		identity: identity,
		store:    store,
		logger:   l,
	}

	// Restore the best-effort cache; a miss just means a cold start
	if account, ok := localstore.Load[models.Account](store, localstore.KeyUser); ok {
		s.account = account
	}
	if txs, ok := localstore.Load[[]models.Transaction](store, localstore.KeyTransactions); ok {
		s.transactions = txs
	}

	return s
}

// Login authenticates through the identity provider and activates the
// returned account.
func (s *Session) Login(ctx context.Context) (models.Account, error) {
	creds, err := s.identity.Login(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("identity provider login failed: %w", err)
	}

	s.mu.Lock()
	s.account = creds.Account
	s.tokenExpiry = tokenExpiry(creds.AccessToken)
	s.mu.Unlock()

	if err := localstore.Save(s.store, localstore.KeyUser, creds.Account); err != nil {
		s.logger.Warn("Failed to cache account", "error", err)
	}

	s.logger.Info("Logged in", "account_id", creds.Account.ID)
	return creds.Account, nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.identity.Logout(ctx); err != nil {
		return fmt.Errorf("identity provider logout failed: %w", err)
	}

	s.mu.Lock()
	s.account = models.Account{}
	s.tokenExpiry = time.Time{}
	s.transactions = nil
	s.requests = nil
	s.mu.Unlock()

	for _, key := range []string{localstore.KeyUser, localstore.KeyTransactions, localstore.KeyRedirect} {
		if err := s.store.Delete(key); err != nil {
			s.logger.Warn("Failed to clear cache key", "key", key, "error", err)
		}
	}
	return nil
}

// Authenticated reports whether an account is active and its token, when one
// carried an expiry, has not run out.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.account.ID == "" {
		return false
	}
	return s.tokenExpiry.IsZero() || time.Now().Before(s.tokenExpiry)
}

// CurrentAccount returns the active account, false when logged out.
func (s *Session) CurrentAccount() (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.account.ID != ""
}

// WalletAddress returns the active account's on-chain address, empty while
// logged out or before the address was provisioned.
func (s *Session) WalletAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.WalletAddress
}

// PrependTransaction puts a fresh transaction at the head of the local list.
// The list is most-recent-first; the backend remains the source of truth on
// reload.
func (s *Session) PrependTransaction(tx models.Transaction) {
	s.mu.Lock()
	s.transactions = append([]models.Transaction{tx}, s.transactions...)
	cached := append([]models.Transaction(nil), s.transactions...)
	s.mu.Unlock()

	if err := localstore.Save(s.store, localstore.KeyTransactions, cached); err != nil {
		s.logger.Warn("Failed to cache transactions", "error", err)
	}
}

// ReplaceTransactions swaps the local list for a backend-loaded one.
func (s *Session) ReplaceTransactions(txs []models.Transaction) {
	s.mu.Lock()
	s.transactions = append([]models.Transaction(nil), txs...)
	s.mu.Unlock()

	if err := localstore.Save(s.store, localstore.KeyTransactions, txs); err != nil {
		s.logger.Warn("Failed to cache transactions", "error", err)
	}
}

func (s *Session) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.transactions...)
}

// ReplaceRequests swaps the locally known money requests.
func (s *Session) ReplaceRequests(requests []models.MoneyRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append([]models.MoneyRequest(nil), requests...)
}

// UpsertRequest stores a request by id, replacing any older copy.
func (s *Session) UpsertRequest(req models.MoneyRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, known := range s.requests {
		if known.ID == req.ID {
			s.requests[i] = req
			return
		}
	}
	s.requests = append([]models.MoneyRequest{req}, s.requests...)
}

// PendingRequests returns the requests still waiting on a decision.
func (s *Session) PendingRequests() []models.MoneyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := []models.MoneyRequest{}
	for _, req := range s.requests {
		if req.IsOpen() {
			pending = append(pending, req)
		}
	}
	return pending
}

// StashRedirect remembers the URL an unauthenticated visitor wanted, so the
// flow resumes there after login.
func (s *Session) StashRedirect(url string) {
	if err := localstore.Save(s.store, localstore.KeyRedirect, url); err != nil {
		s.logger.Warn("Failed to stash redirect", "error", err)
	}
}

// TakeRedirect returns and clears the stashed URL.
func (s *Session) TakeRedirect() (string, bool) {
	url, ok := localstore.Load[string](s.store, localstore.KeyRedirect)
	if !ok {
		return "", false
	}
	if err := s.store.Delete(localstore.KeyRedirect); err != nil {
		s.logger.Warn("Failed to clear redirect", "error", err)
	}
	return url, true
}

// tokenExpiry peeks at the provider token's exp claim without verifying the
// signature. Verification is the provider's job; the client only needs to
// know when to re-authenticate. Opaque tokens yield a zero time.
func tokenExpiry(accessToken string) time.Time {
	if accessToken == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
