package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cashtide/wallet/internal/apperrors"
)

// DisplayPrecision is the number of fraction digits users enter and see.
// Assets on chain usually carry more (the supported stablecoin has 6).
const DisplayPrecision = 2

// Amount is a non-negative monetary value held as integer minor units (cents).
// The zero value is a valid "0.00" amount.
type Amount struct {
	minor int64
}

// AmountFromMinor builds an amount from a count of minor units.
// Negative input floors to zero, the type never holds negative money.
func AmountFromMinor(minor int64) Amount {
	if minor < 0 {
		minor = 0
	}
	return Amount{minor: minor}
}

// AmountFromDecimal adopts a wire amount (e.g. from a MoneyRequest).
// Values with sub-cent fractions are rejected rather than rounded: they can't
// be re-entered on the keypad and would lose precision on display.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, apperrors.ErrAmountNotPositive
	}
	if !d.Equal(d.Truncate(DisplayPrecision)) {
		return Amount{}, apperrors.ErrSubCentAmount
	}
	return Amount{minor: d.Mul(decimal.New(100, 0)).IntPart()}, nil
}

// ApplyDigit appends a keypad digit cents-first: entering 5, 0, 0 in sequence
// yields 0.05, 0.50, 5.00. Digits outside 0-9 are ignored.
func (a Amount) ApplyDigit(digit int) Amount {
	if digit < 0 || digit > 9 {
		return a
	}
	return Amount{minor: a.minor*10 + int64(digit)}
}

// DeleteDigit removes the most recently entered digit, flooring at zero.
func (a Amount) DeleteDigit() Amount {
	return Amount{minor: a.minor / 10}
}

func (a Amount) IsPositive() bool {
	return a.minor > 0
}

func (a Amount) IsZero() bool {
	return a.minor == 0
}

func (a Amount) MinorUnits() int64 {
	return a.minor
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, 1 if a > b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.minor < b.minor:
		return -1
	case a.minor > b.minor:
		return 1
	default:
		return 0
	}
}

func (a Amount) GreaterThan(b Amount) bool {
	return a.minor > b.minor
}

// String renders the canonical display form: always two fraction digits,
// always a leading major digit ("0.00" for zero).
func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d", a.minor/100, a.minor%100)
}

// Decimal returns the amount at display precision for wire use.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.minor, -DisplayPrecision)
}

// TokenUnits converts the amount to the asset's minor-unit precision.
// The conversion is exact: minor units are already integral, so scaling up to
// any precision >= display precision cannot lose digits.
func (a Amount) TokenUnits(decimals int32) (decimal.Decimal, error) {
	if decimals < DisplayPrecision {
		return decimal.Decimal{}, fmt.Errorf("asset precision %d below display precision %d", decimals, DisplayPrecision)
	}
	return decimal.New(a.minor, decimals-DisplayPrecision), nil
}

// AmountFromTokenUnits converts an on-chain token-unit value back to a display
// amount, truncating dust below one cent.
func AmountFromTokenUnits(units decimal.Decimal, decimals int32) Amount {
	minor := units.Shift(DisplayPrecision - decimals).IntPart()
	return AmountFromMinor(minor)
}
