package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the fixed scale of native currency minor units (lamports).
const NativeDecimals = 9

// FallbackTokenDecimals is used to scale a raw token amount when the ledger
// did not report the mint's decimals. It is an inherited assumption and is
// wrong for mints with a different scale.
const FallbackTokenDecimals = 9

// TransactionRecord is the canonical form of one ledger transaction.
// Both upstream payload shapes are normalized into it.
type TransactionRecord struct {
	Signature string
	Slot      int64
	BlockTime *int64 // Unix seconds, nil when the ledger did not report it
	Failed    bool

	// AccountKeys are ordered as in the message; index 0 is the fee payer.
	AccountKeys []AccountKey

	// Native balances in lamports, aligned by index to AccountKeys.
	NativePreBalances  []uint64
	NativePostBalances []uint64

	// Token holdings before and after the transaction for every mint touched.
	TokenPreBalances  []TokenBalance
	TokenPostBalances []TokenBalance

	LogMessages []string
}

// AccountKey is an address referenced by a transaction message.
type AccountKey struct {
	Address string
	Signer  bool
}

// TokenBalance is one token account holding reported in transaction meta.
type TokenBalance struct {
	AccountIndex int
	Owner        string
	Mint         string
	RawAmount    string // integer amount in base units, may be empty
	Decimals     int    // -1 when unknown
	UIAmount     string // decimal string, may be empty
}

// HasBlockTime reports whether the record can be placed in a time window.
func (r *TransactionRecord) HasBlockTime() bool {
	return r.BlockTime != nil
}

// AccountIndex returns the first index of address in AccountKeys, or -1.
func (r *TransactionRecord) AccountIndex(address string) int {
	for i, k := range r.AccountKeys {
		if k.Address == address {
			return i
		}
	}
	return -1
}

// Amount returns the holding as a decimal in whole token units.
// UIAmount wins when present; otherwise RawAmount is scaled by Decimals.
// Missing amounts are treated as zero.
func (b TokenBalance) Amount() (decimal.Decimal, error) {
	if b.UIAmount != "" {
		d, err := decimal.NewFromString(b.UIAmount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse ui amount %q: %w", b.UIAmount, err)
		}
		return d, nil
	}
	if b.RawAmount == "" {
		return decimal.Zero, nil
	}
	raw, err := decimal.NewFromString(b.RawAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse raw amount %q: %w", b.RawAmount, err)
	}
	decimals := b.Decimals
	if decimals < 0 {
		decimals = FallbackTokenDecimals
	}
	return raw.Shift(int32(-decimals)), nil
}

// LamportsToNative converts lamports to native currency units.
func LamportsToNative(lamports uint64) decimal.Decimal {
	return decimal.New(int64(lamports), -NativeDecimals)
}
