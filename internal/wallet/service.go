package wallet

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/cashtide/wallet/internal/apperrors"
	"github.com/cashtide/wallet/internal/backend"
	"github.com/cashtide/wallet/internal/balance"
	"github.com/cashtide/wallet/internal/chain"
	"github.com/cashtide/wallet/internal/logger"
	"github.com/cashtide/wallet/internal/models"
	"github.com/cashtide/wallet/internal/session"
)

// Service is the WalletOperations capability: everything the money-movement
// screens do against the relayer and the backend goes through here, so the
// vendor SDKs stay swappable behind the chain interfaces.
type Service struct {
	backend  *backend.Client
	relayer  chain.Relayer
	token    chain.Token
	balances *balance.Cache
	session  *session.Session
	resolver *Resolver
	logger   logger.Logger
}

func NewService(
	b *backend.Client,
	relayer chain.Relayer,
	token chain.Token,
	balances *balance.Cache,
	sess *session.Session,
	l logger.Logger,
) *Service {
	return &Service{
		backend:  b,
		relayer:  relayer,
		token:    token,
		balances: balances,
		session:  sess,
		resolver: NewResolver(b, l),
		logger:   l,
	}
}

// Resolver exposes recipient resolution for the workflow.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Balance returns the active account's balance through the cache.
func (s *Service) Balance(ctx context.Context) (models.Amount, error) {
	address := s.session.WalletAddress()
	if address == "" {
		return models.Amount{}, apperrors.ErrAuthenticationRequired
	}
	return s.balances.Balance(ctx, address)
}

// Send resolves the recipient phone and moves funds to it.
func (s *Service) Send(ctx context.Context, amount models.Amount, to string) (models.Transaction, error) {
	recipient, err := s.resolver.Resolve(ctx, to)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.SendTo(ctx, amount, recipient)
}

// SendTo submits a transfer to an already-resolved recipient.
//
// Amount and balance are re-checked here even though the workflow guards them:
// the balance may have moved since the amount step. The relayer call comes
// first; only a confirmed hash is recorded with the backend, and a failure at
// either stage leaves the local transaction list, balance cache and any bound
// request untouched.
func (s *Service) SendTo(ctx context.Context, amount models.Amount, recipient models.Account) (models.Transaction, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return models.Transaction{}, apperrors.ErrAuthenticationRequired
	}

	if !amount.IsPositive() {
		return models.Transaction{}, apperrors.ErrAmountNotPositive
	}

	current, err := s.Balance(ctx)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: balance unavailable: %w", apperrors.ErrSubmissionFailed, err)
	}
	if amount.GreaterThan(current) {
		return models.Transaction{}, apperrors.ErrInsufficientBalance
	}

	units, err := amount.TokenUnits(s.token.Decimals)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: %w", apperrors.ErrSubmissionFailed, err)
	}

	txHash, err := s.relayer.Transfer(ctx, s.token, recipient.WalletAddress, units)
	if err != nil {
		s.logger.Warn("Relayer transfer failed", "to", recipient.WalletAddress, "error", err)
		return models.Transaction{}, fmt.Errorf("%w: %w", apperrors.ErrSubmissionFailed, err)
	}

	// Each attempt is a fresh attempt: a new relayer call and a new key.
	// The key only protects the backend from double records, not the chain.
	tx, err := s.backend.CreateTransaction(ctx, backend.CreateTransactionParams{
		TxHash:         txHash,
		Type:           models.TransactionTypeSend,
		SenderID:       account.ID,
		ReceiverID:     recipient.ID,
		Amount:         amount,
		Status:         models.TransactionStatusCompleted,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		s.logger.Error("Transfer confirmed on chain but backend record failed", "tx_hash", txHash, "error", err)
		return models.Transaction{}, fmt.Errorf("%w: recording failed: %w", apperrors.ErrSubmissionFailed, err)
	}

	s.session.PrependTransaction(tx)
	if _, err := s.balances.Refresh(ctx, account.WalletAddress); err != nil {
		s.logger.Warn("Post-send balance refresh failed", "error", err)
	}

	s.logger.Info("Money sent", "tx_hash", txHash, "amount", amount.String(), "receiver_id", recipient.ID)
	return tx, nil
}

// Request creates a money request bound to the phone's owner.
func (s *Service) Request(ctx context.Context, amount models.Amount, from string, message string) (models.MoneyRequest, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return models.MoneyRequest{}, apperrors.ErrAuthenticationRequired
	}
	if !amount.IsPositive() {
		return models.MoneyRequest{}, apperrors.ErrAmountNotPositive
	}

	payer, err := s.resolver.Resolve(ctx, from)
	if err != nil {
		return models.MoneyRequest{}, err
	}

	req, err := s.backend.CreateRequest(ctx, backend.CreateRequestParams{
		RequesterID: account.ID,
		PayerID:     payer.ID,
		Amount:      amount,
		Message:     message,
	})
	if err != nil {
		return models.MoneyRequest{}, fmt.Errorf("can't create money request: %w", err)
	}

	s.session.UpsertRequest(req)
	s.logger.Info("Money requested", "request_id", req.ID, "amount", amount.String(), "payer_id", payer.ID)
	return req, nil
}

// RequestFromAnyone creates an open request fulfillable through its link.
func (s *Service) RequestFromAnyone(ctx context.Context, amount models.Amount, message string) (models.MoneyRequest, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return models.MoneyRequest{}, apperrors.ErrAuthenticationRequired
	}
	if !amount.IsPositive() {
		return models.MoneyRequest{}, apperrors.ErrAmountNotPositive
	}

	req, err := s.backend.CreateGlobalRequest(ctx, account.ID, amount, message)
	if err != nil {
		return models.MoneyRequest{}, fmt.Errorf("can't create open money request: %w", err)
	}

	s.session.UpsertRequest(req)
	return req, nil
}

// GetRequest fetches a money request by id.
func (s *Service) GetRequest(ctx context.Context, id string) (models.MoneyRequest, error) {
	req, err := s.backend.GetRequest(ctx, id)
	if err != nil {
		if backend.IsNotFound(err) {
			return models.MoneyRequest{}, apperrors.ErrRequestNotFound
		}
		return models.MoneyRequest{}, fmt.Errorf("can't fetch money request %s: %w", id, err)
	}
	return req, nil
}

// CancelRequest withdraws the current user's own pending request.
func (s *Service) CancelRequest(ctx context.Context, id string) (models.MoneyRequest, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return models.MoneyRequest{}, apperrors.ErrAuthenticationRequired
	}

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return models.MoneyRequest{}, err
	}
	if req.Requester.ID != account.ID {
		return models.MoneyRequest{}, apperrors.ErrRequestNotForUser
	}
	if !models.CanTransitionRequestStatus(req.Status, models.RequestStatusCanceled) {
		return models.MoneyRequest{}, apperrors.ErrRequestStatusFinal
	}

	canceled, err := s.backend.CancelRequest(ctx, id)
	if err != nil {
		return models.MoneyRequest{}, fmt.Errorf("can't cancel money request %s: %w", id, err)
	}

	s.session.UpsertRequest(canceled)
	return canceled, nil
}

// UpdateRequestStatus moves a pending request to a terminal status, guarding
// illegal transitions before any network call.
func (s *Service) UpdateRequestStatus(ctx context.Context, req models.MoneyRequest, status string) (models.MoneyRequest, error) {
	if !models.CanTransitionRequestStatus(req.Status, status) {
		return models.MoneyRequest{}, apperrors.ErrRequestStatusFinal
	}

	updated, err := s.backend.UpdateRequestStatus(ctx, req.ID, status)
	if err != nil {
		return models.MoneyRequest{}, fmt.Errorf("can't update request %s to %s: %w", req.ID, status, err)
	}

	s.session.UpsertRequest(updated)
	return updated, nil
}

// AddFunds records a deposit. The actual payment rail (card, wallet pass) is
// external; this is the ledger side once it clears. Non-chain operations get
// a locally generated placeholder hash.
func (s *Service) AddFunds(ctx context.Context, amount models.Amount, method string) (models.Transaction, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return models.Transaction{}, apperrors.ErrAuthenticationRequired
	}
	if !amount.IsPositive() {
		return models.Transaction{}, apperrors.ErrAmountNotPositive
	}

	tx, err := s.backend.CreateTransaction(ctx, backend.CreateTransactionParams{
		TxHash:         "local:" + uuid.NewString(),
		Type:           models.TransactionTypeDeposit,
		SenderID:       account.ID,
		ReceiverID:     account.ID,
		Amount:         amount,
		Status:         models.TransactionStatusCompleted,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return models.Transaction{}, fmt.Errorf("can't record deposit: %w", err)
	}

	s.session.PrependTransaction(tx)
	if _, err := s.balances.Refresh(ctx, account.WalletAddress); err != nil {
		s.logger.Warn("Post-deposit balance refresh failed", "error", err)
	}

	s.logger.Info("Funds added", "amount", amount.String(), "method", method)
	return tx, nil
}

// Transactions loads all four activity lists from the backend, merges them
// most-recent-first and replaces the local cache.
func (s *Service) Transactions(ctx context.Context) ([]models.Transaction, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return nil, apperrors.ErrAuthenticationRequired
	}

	types := []string{
		models.TransactionTypeSend,
		models.TransactionTypeReceive,
		models.TransactionTypeDeposit,
		models.TransactionTypeWithdrawal,
	}

	all := []models.Transaction{}
	for _, txType := range types {
		txs, err := s.backend.ListTransactions(ctx, account.ID, txType)
		if err != nil {
			return nil, fmt.Errorf("can't list %s transactions: %w", txType, err)
		}
		all = append(all, txs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	s.session.ReplaceTransactions(all)
	return all, nil
}

// RefreshRequests reloads the user's money requests from the backend.
func (s *Service) RefreshRequests(ctx context.Context) ([]models.MoneyRequest, error) {
	account, ok := s.session.CurrentAccount()
	if !ok {
		return nil, apperrors.ErrAuthenticationRequired
	}

	requests, err := s.backend.ListRequests(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("can't list money requests: %w", err)
	}

	s.session.ReplaceRequests(requests)
	return requests, nil
}
