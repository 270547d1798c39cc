package solana

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of base units in one SOL.
const LamportsPerSOL = 1_000_000_000

// ErrInvalidAmount is returned for amounts that are not a positive number of SOL.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	errBelowLamport = errors.New("less than one lamport")
	errOutOfRange   = errors.New("out of range")
)

// Bounds on user-entered amounts. A decimal string can carry an arbitrarily
// large exponent, so anything outside these limits is rejected before any
// arithmetic is done on it.
const (
	MaxAmountLength   = 32
	MinAmountExponent = -18
	MaxAmountExponent = 12
)

var lamportsPerSOL = decimal.NewFromInt(LamportsPerSOL)

// InAmountBounds reports whether a parsed amount has an exponent that the
// lamport conversion can handle cheaply.
func InAmountBounds(amount decimal.Decimal) bool {
	exp := amount.Exponent()
	return exp >= MinAmountExponent && exp <= MaxAmountExponent
}

// ParseSOL parses a user-entered SOL amount. The amount must be a positive
// decimal that converts to at least one lamport.
func ParseSOL(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	if len(s) > MaxAmountLength {
		return decimal.Zero, fmt.Errorf("%w: amount is longer than %d characters", ErrInvalidAmount, MaxAmountLength)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	if !InAmountBounds(amount) {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}

	if _, err := SOLToLamports(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, err)
	}

	return amount, nil
}

// SOLToLamports converts a SOL amount to lamports, truncating sub-lamport precision.
func SOLToLamports(amount decimal.Decimal) (uint64, error) {
	if !InAmountBounds(amount) {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, errOutOfRange)
	}
	lamports := amount.Mul(lamportsPerSOL).Truncate(0)
	if !lamports.IsPositive() {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, errBelowLamport)
	}
	if !lamports.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, errOutOfRange)
	}
	return lamports.BigInt().Uint64(), nil
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0).Div(lamportsPerSOL)
}

// lamportDeltaToSOL converts a signed lamport delta to a positive SOL amount.
func lamportDeltaToSOL(delta int64) decimal.Decimal {
	return decimal.NewFromInt(delta).Abs().Div(lamportsPerSOL)
}
