package models

import (
	"time"
)

const (
	TransactionTypeSend       = "send"
	TransactionTypeReceive    = "receive"
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an immutable record owned by the backend; the client holds a
// read-through cached projection.
type Transaction struct {
	ID          string
	TxHash      string
	Type        string
	Amount      Amount
	Sender      Account
	Receiver    Account
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
