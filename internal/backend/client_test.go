package backend

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
	"github.com/cashtide/wallet/internal/testutil"
)

func TestClient(t *testing.T) {
	t.Parallel()

	newClient := func(t *testing.T) (*Client, *testutil.FakeBackend) {
		fb := testutil.NewFakeBackend(t)
		return NewClient(fb.URL(), logger.NewNoOp()), fb
	}

	t.Run("GetUserByPhone", func(t *testing.T) {
		t.Run("found", func(t *testing.T) {
			client, fb := newClient(t)
			seeded := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9000000000", Name: "Asha"})

			acc, err := client.GetUserByPhone(t.Context(), "+91 9000000000")

			require.NoError(t, err)
			require.Equal(t, seeded.ID, acc.ID)
			require.Equal(t, "+91 9000000000", acc.PhoneNumber)
			require.Equal(t, models.AccountStatusActive, acc.Status)
			require.NotEmpty(t, acc.WalletAddress)
		})

		t.Run("unknown phone is not-found", func(t *testing.T) {
			client, _ := newClient(t)

			_, err := client.GetUserByPhone(t.Context(), "+91 9111111111")

			require.Error(t, err)
			require.True(t, IsNotFound(err), "expected not-found code, got %v", err)
		})

		t.Run("server failure is not not-found", func(t *testing.T) {
			client, fb := newClient(t)
			fb.FailLookupByPhone = true

			_, err := client.GetUserByPhone(t.Context(), "+91 9000000000")

			require.Error(t, err)
			require.False(t, IsNotFound(err))
		})
	})

	t.Run("PregenerateUser", func(t *testing.T) {
		t.Run("provisions placeholder", func(t *testing.T) {
			client, fb := newClient(t)

			acc, err := client.PregenerateUser(t.Context(), "+91 9000000000")

			require.NoError(t, err)
			require.NotEmpty(t, acc.ID)
			require.Equal(t, models.AccountStatusPending, acc.Status)
			require.True(t, acc.IsPlaceholder())
			require.Equal(t, 1, fb.PregenerateCalls)
		})

		t.Run("same phone maps to one account", func(t *testing.T) {
			client, _ := newClient(t)

			first, err := client.PregenerateUser(t.Context(), "+91 9000000000")
			require.NoError(t, err)

			second, err := client.PregenerateUser(t.Context(), "+91 9000000000")
			require.NoError(t, err)
			require.Equal(t, first.ID, second.ID)
		})
	})

	t.Run("CreateTransaction", func(t *testing.T) {
		client, fb := newClient(t)
		sender := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9000000000"})
		receiver := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9111111111"})

		tx, err := client.CreateTransaction(t.Context(), CreateTransactionParams{
			TxHash:         "0xabc",
			Type:           models.TransactionTypeSend,
			SenderID:       sender.ID,
			ReceiverID:     receiver.ID,
			Amount:         models.AmountFromMinor(1000),
			Status:         models.TransactionStatusCompleted,
			IdempotencyKey: "key-1",
		})

		require.NoError(t, err)
		require.Equal(t, models.TransactionTypeSend, tx.Type, "wire enum should be lowercased")
		require.Equal(t, models.TransactionStatusCompleted, tx.Status)
		require.Equal(t, int64(1000), tx.Amount.MinorUnits())
		require.Equal(t, sender.ID, tx.Sender.ID)
		require.Equal(t, receiver.ID, tx.Receiver.ID)
		require.Equal(t, []string{"key-1"}, fb.SeenIdempotencyKeys)
	})

	t.Run("ListTransactions filters by type", func(t *testing.T) {
		client, fb := newClient(t)
		sender := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9000000000"})
		receiver := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9111111111"})

		_, err := client.CreateTransaction(t.Context(), CreateTransactionParams{
			TxHash: "0x1", Type: models.TransactionTypeSend,
			SenderID: sender.ID, ReceiverID: receiver.ID,
			Amount: models.AmountFromMinor(100), Status: models.TransactionStatusCompleted,
		})
		require.NoError(t, err)

		sends, err := client.ListTransactions(t.Context(), sender.ID, models.TransactionTypeSend)
		require.NoError(t, err)
		require.Len(t, sends, 1)

		deposits, err := client.ListTransactions(t.Context(), sender.ID, models.TransactionTypeDeposit)
		require.NoError(t, err)
		require.Empty(t, deposits)
	})

	t.Run("requests", func(t *testing.T) {
		t.Run("direct create and status update", func(t *testing.T) {
			client, fb := newClient(t)
			requester := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9000000000"})
			payer := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9111111111"})

			req, err := client.CreateRequest(t.Context(), CreateRequestParams{
				RequesterID: requester.ID,
				PayerID:     payer.ID,
				Amount:      models.AmountFromMinor(2500),
				Message:     "lunch",
			})

			require.NoError(t, err)
			require.Equal(t, models.RequestKindDirect, req.Kind)
			require.Equal(t, models.RequestStatusPending, req.Status)
			require.NotNil(t, req.Payer)

			updated, err := client.UpdateRequestStatus(t.Context(), req.ID, models.RequestStatusApproved)
			require.NoError(t, err)
			require.Equal(t, models.RequestStatusApproved, updated.Status)
		})

		t.Run("global request has no payer", func(t *testing.T) {
			client, fb := newClient(t)
			requester := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9000000000"})

			req, err := client.CreateGlobalRequest(t.Context(), requester.ID, models.AmountFromMinor(500), "")

			require.NoError(t, err)
			require.Equal(t, models.RequestKindGlobal, req.Kind)
			require.Nil(t, req.Payer)
		})

		t.Run("get missing request is not-found", func(t *testing.T) {
			client, _ := newClient(t)

			_, err := client.GetRequest(t.Context(), "missing")

			require.True(t, IsNotFound(err))
		})

		t.Run("cancel", func(t *testing.T) {
			client, fb := newClient(t)
			requester := fb.AddAccount(testutil.Account{PhoneNumber: "+91 9000000000"})
			seeded := fb.AddRequest(testutil.MoneyRequest{Requester: requester, Amount: decimal.RequireFromString("10.00")})

			canceled, err := client.CancelRequest(t.Context(), seeded.ID)

			require.NoError(t, err)
			require.Equal(t, models.RequestStatusCanceled, canceled.Status)
		})
	})
}
