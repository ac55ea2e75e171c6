package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/cashtide/wallet/internal/localstore"
	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
)

type fakeIdentity struct {
	creds      Credentials
	loginErr   error
	logoutErr  error
	loginCalls int
}

func (f *fakeIdentity) Login(ctx context.Context) (Credentials, error) {
	f.loginCalls++
	return f.creds, f.loginErr
}

func (f *fakeIdentity) Logout(ctx context.Context) error {
	return f.logoutErr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "did:provider:u1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSession(t *testing.T) {
	t.Parallel()

	account := models.Account{
		ID:            "u1",
		PhoneNumber:   "+91 9000000000",
		WalletAddress: "0xabc",
		Status:        models.AccountStatusActive,
	}

	t.Run("login activates account", func(t *testing.T) {
		identity := &fakeIdentity{creds: Credentials{
			Account:     account,
			AccessToken: signedToken(t, time.Now().Add(time.Hour)),
		}}
		s := New(identity, newStore(t), logger.NewNoOp())

		require.False(t, s.Authenticated())

		got, err := s.Login(t.Context())

		require.NoError(t, err)
		require.Equal(t, account, got)
		require.True(t, s.Authenticated())
		require.Equal(t, "0xabc", s.WalletAddress())
	})

	t.Run("expired token is not authenticated", func(t *testing.T) {
		identity := &fakeIdentity{creds: Credentials{
			Account:     account,
			AccessToken: signedToken(t, time.Now().Add(-time.Hour)),
		}}
		s := New(identity, newStore(t), logger.NewNoOp())

		_, err := s.Login(t.Context())

		require.NoError(t, err)
		require.False(t, s.Authenticated())
	})

	t.Run("opaque token trusted until logout", func(t *testing.T) {
		identity := &fakeIdentity{creds: Credentials{Account: account, AccessToken: "not-a-jwt"}}
		s := New(identity, newStore(t), logger.NewNoOp())

		_, err := s.Login(t.Context())

		require.NoError(t, err)
		require.True(t, s.Authenticated())
	})

	t.Run("login failure propagates", func(t *testing.T) {
		identity := &fakeIdentity{loginErr: errors.New("user closed the modal")}
		s := New(identity, newStore(t), logger.NewNoOp())

		_, err := s.Login(t.Context())

		require.Error(t, err)
		require.False(t, s.Authenticated())
	})

	t.Run("account survives restart through cache", func(t *testing.T) {
		store := newStore(t)
		identity := &fakeIdentity{creds: Credentials{Account: account}}

		first := New(identity, store, logger.NewNoOp())
		_, err := first.Login(t.Context())
		require.NoError(t, err)

		second := New(identity, store, logger.NewNoOp())

		got, ok := second.CurrentAccount()
		require.True(t, ok)
		require.Equal(t, account.ID, got.ID)
	})

	t.Run("logout clears state and cache", func(t *testing.T) {
		store := newStore(t)
		identity := &fakeIdentity{creds: Credentials{Account: account}}
		s := New(identity, store, logger.NewNoOp())

		_, err := s.Login(t.Context())
		require.NoError(t, err)
		s.PrependTransaction(models.Transaction{ID: "t1"})

		require.NoError(t, s.Logout(t.Context()))

		_, ok := s.CurrentAccount()
		require.False(t, ok)
		require.Empty(t, s.Transactions())

		restarted := New(identity, store, logger.NewNoOp())
		_, ok = restarted.CurrentAccount()
		require.False(t, ok, "cached account should be gone after logout")
	})

	t.Run("transactions are most recent first", func(t *testing.T) {
		s := New(&fakeIdentity{}, newStore(t), logger.NewNoOp())

		s.PrependTransaction(models.Transaction{ID: "t1"})
		s.PrependTransaction(models.Transaction{ID: "t2"})

		txs := s.Transactions()
		require.Len(t, txs, 2)
		require.Equal(t, "t2", txs[0].ID)
		require.Equal(t, "t1", txs[1].ID)
	})

	t.Run("pending requests filter", func(t *testing.T) {
		s := New(&fakeIdentity{}, newStore(t), logger.NewNoOp())

		s.ReplaceRequests([]models.MoneyRequest{
			{ID: "r1", Status: models.RequestStatusPending},
			{ID: "r2", Status: models.RequestStatusApproved},
		})

		pending := s.PendingRequests()
		require.Len(t, pending, 1)
		require.Equal(t, "r1", pending[0].ID)
	})

	t.Run("upsert request replaces by id", func(t *testing.T) {
		s := New(&fakeIdentity{}, newStore(t), logger.NewNoOp())

		s.UpsertRequest(models.MoneyRequest{ID: "r1", Status: models.RequestStatusPending})
		s.UpsertRequest(models.MoneyRequest{ID: "r1", Status: models.RequestStatusApproved})

		require.Empty(t, s.PendingRequests())
	})

	t.Run("redirect stash", func(t *testing.T) {
		s := New(&fakeIdentity{}, newStore(t), logger.NewNoOp())

		_, ok := s.TakeRedirect()
		require.False(t, ok)

		s.StashRedirect("/send?requestId=r1")

		url, ok := s.TakeRedirect()
		require.True(t, ok)
		require.Equal(t, "/send?requestId=r1", url)

		_, ok = s.TakeRedirect()
		require.False(t, ok, "redirect should be single use")
	})
}
