package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cashtide/wallet/internal/models"
)

var validate = validator.New()

// Wire payloads. The backend speaks uppercase enums and its own field names;
// everything is validated and mapped to models before leaving this package.

type accountPayload struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name"`
	PhoneNumber   string    `json:"phoneNumber" validate:"required"`
	WalletAddress string    `json:"walletAddress"`
	ProviderDID   string    `json:"providerDid"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (p accountPayload) toModel() (models.Account, error) {
	if err := validate.Struct(p); err != nil {
		return models.Account{}, newError(CodeDecode, fmt.Errorf("invalid account payload: %w", err))
	}

	return models.Account{
		ID:            p.ID,
		CreatedAt:     p.CreatedAt,
		Name:          p.Name,
		PhoneNumber:   p.PhoneNumber,
		WalletAddress: p.WalletAddress,
		ProviderDID:   p.ProviderDID,
		Status:        strings.ToLower(p.Status),
	}, nil
}

type transactionPayload struct {
	ID          string          `json:"id" validate:"required"`
	TxHash      string          `json:"txhash"`
	Type        string          `json:"transactionType" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"transactionStatus" validate:"required"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt"`
	Sender      accountPayload  `json:"sender"`
	Receiver    accountPayload  `json:"receiver"`
}

func (p transactionPayload) toModel() (models.Transaction, error) {
	if err := validate.Struct(p); err != nil {
		return models.Transaction{}, newError(CodeDecode, fmt.Errorf("invalid transaction payload: %w", err))
	}

	amount, err := models.AmountFromDecimal(p.Amount)
	if err != nil {
		return models.Transaction{}, newError(CodeDecode, fmt.Errorf("transaction %s amount: %w", p.ID, err))
	}

	sender, err := p.Sender.toModel()
	if err != nil {
		return models.Transaction{}, err
	}
	receiver, err := p.Receiver.toModel()
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		ID:          p.ID,
		TxHash:      p.TxHash,
		Type:        strings.ToLower(p.Type),
		Amount:      amount,
		Sender:      sender,
		Receiver:    receiver,
		Status:      strings.ToLower(p.Status),
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
	}, nil
}

type requestPayload struct {
	ID        string          `json:"id" validate:"required"`
	Requester accountPayload  `json:"requester"`
	Payer     *accountPayload `json:"payer"`
	Amount    decimal.Decimal `json:"amount"`
	Message   string          `json:"message"`
	Kind      string          `json:"requestType" validate:"required"`
	Status    string          `json:"requestStatus" validate:"required"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (p requestPayload) toModel() (models.MoneyRequest, error) {
	if err := validate.Struct(p); err != nil {
		return models.MoneyRequest{}, newError(CodeDecode, fmt.Errorf("invalid request payload: %w", err))
	}

	amount, err := models.AmountFromDecimal(p.Amount)
	if err != nil {
		return models.MoneyRequest{}, newError(CodeDecode, fmt.Errorf("request %s amount: %w", p.ID, err))
	}

	requester, err := p.Requester.toModel()
	if err != nil {
		return models.MoneyRequest{}, err
	}

	var payer *models.Account
	if p.Payer != nil {
		acc, err := p.Payer.toModel()
		if err != nil {
			return models.MoneyRequest{}, err
		}
		payer = &acc
	}

	return models.MoneyRequest{
		ID:        p.ID,
		Requester: requester,
		Payer:     payer,
		Amount:    amount,
		Message:   p.Message,
		Kind:      strings.ToUpper(p.Kind),
		Status:    strings.ToUpper(p.Status),
		CreatedAt: p.CreatedAt,
	}, nil
}
