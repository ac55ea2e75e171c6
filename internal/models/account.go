package models

import (
	"time"
)

const (
	AccountStatusCreated = "created"
	AccountStatusActive  = "active"

	// AccountStatusPending marks a placeholder account the backend
	// pre-generated for a phone number that has not onboarded yet.
	AccountStatusPending = "pending"
)

// Account is a backend user record. The wallet address belongs to a
// relayer-managed smart contract account and is immutable once assigned.
type Account struct {
	ID            string
	CreatedAt     time.Time
	Name          string
	PhoneNumber   string
	WalletAddress string
	ProviderDID   string
	Status        string
}

// IsPlaceholder reports whether the account was pre-generated and its owner
// has never authenticated.
func (a Account) IsPlaceholder() bool {
	return a.Status == AccountStatusPending
}
