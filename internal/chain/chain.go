// Package chain declares the on-chain collaborators the wallet consumes: the
// relayer that submits sponsored transactions for the user's smart contract
// account, and the read client for stablecoin balances. Vendor SDKs implement
// these interfaces outside this module.
package chain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cashtide/wallet/internal/models"
)

// Token describes an ERC-20 style asset the wallet can hold.
type Token struct {
	Symbol   string
	Address  string
	Decimals int32
}

// USDC is the supported stablecoin. Six on-chain decimals, two for display.
var USDC = Token{
	Symbol:   "USDC",
	Address:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	Decimals: 6,
}

// Relayer submits transfers through a gas-sponsoring smart account.
type Relayer interface {
	// Address of the relayer-managed smart contract wallet.
	Address() string

	// Transfer moves units (at token precision) to the recipient address and
	// returns the transaction hash.
	Transfer(ctx context.Context, token Token, to string, units decimal.Decimal) (string, error)
}

// TokenReader reads token balances from the chain.
type TokenReader interface {
	// BalanceOf returns the balance in token units.
	BalanceOf(ctx context.Context, token Token, address string) (decimal.Decimal, error)
}

// ReadBalance fetches an address balance and converts it to display units.
func ReadBalance(ctx context.Context, reader TokenReader, token Token, address string) (models.Amount, error) {
	units, err := reader.BalanceOf(ctx, token, address)
	if err != nil {
		return models.Amount{}, err
	}
	return models.AmountFromTokenUnits(units, token.Decimals), nil
}
