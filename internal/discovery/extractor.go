package discovery

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-buy-ranking/internal/domain"
)

// MinNativeSpent is the floor a buy must strictly exceed, in native units.
// It excludes transactions where the actor only paid fees.
var MinNativeSpent = decimal.New(1, -5)

// Skip reasons returned by Extract. None of them is fatal to a batch.
var (
	ErrFailedTx      = errors.New("transaction failed")
	ErrNoAccounts    = errors.New("no account keys")
	ErrNotSigner     = errors.New("fee payer is not a signer")
	ErrNoNativeSpend = errors.New("native spend at or below threshold")
	ErrNoTokenGain   = errors.New("no target token gain")
	ErrBadAmount     = errors.New("unparseable token amount")
	ErrNoDEXProgram  = errors.New("no required program referenced")
)

// BuyExtractor classifies transactions as buys of a single target token.
//
// Classification is heuristic: the fee payer's native balance dropped and
// its target token balance rose. Without RequiredPrograms it does not check
// that a DEX was involved, so a token transfer-in paired with an unrelated
// native payment is counted as a buy.
type BuyExtractor struct {
	targetToken string
	programs    *programSet
}

// ExtractorOption configures a BuyExtractor.
type ExtractorOption func(*BuyExtractor)

// WithRequiredPrograms only accepts transactions that reference one of ids.
func WithRequiredPrograms(ids []string) ExtractorOption {
	return func(e *BuyExtractor) {
		e.programs = newProgramSet(ids)
	}
}

// NewBuyExtractor creates an extractor for targetToken.
func NewBuyExtractor(targetToken string, opts ...ExtractorOption) *BuyExtractor {
	e := &BuyExtractor{targetToken: targetToken}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TargetToken returns the mint this extractor looks for.
func (e *BuyExtractor) TargetToken() string {
	return e.targetToken
}

// Extract returns the buy event in rec, or a skip reason.
// At most one event is produced per transaction. Timestamp is 0 when the
// record has no block time.
func (e *BuyExtractor) Extract(rec *domain.TransactionRecord) (*domain.BuyEvent, error) {
	if rec.Failed {
		return nil, ErrFailedTx
	}
	if len(rec.AccountKeys) == 0 {
		return nil, ErrNoAccounts
	}
	if !rec.AccountKeys[0].Signer {
		return nil, ErrNotSigner
	}

	if e.programs != nil {
		addrs := make([]string, len(rec.AccountKeys))
		for i, k := range rec.AccountKeys {
			addrs[i] = k.Address
		}
		if !e.programs.matches(addrs, rec.LogMessages) {
			return nil, ErrNoDEXProgram
		}
	}

	actor := rec.AccountKeys[0].Address
	idx := rec.AccountIndex(actor)

	spent := nativeSpent(rec, idx)
	if !spent.GreaterThan(MinNativeSpent) {
		return nil, ErrNoNativeSpend
	}

	received, err := e.tokenReceived(rec, actor)
	if err != nil {
		return nil, err
	}
	if !received.IsPositive() {
		return nil, ErrNoTokenGain
	}

	ev := &domain.BuyEvent{
		Wallet:        actor,
		NativeSpent:   spent,
		TokenReceived: received,
		TxID:          rec.Signature,
	}
	if rec.BlockTime != nil {
		ev.Timestamp = *rec.BlockTime
	}
	return ev, nil
}

// nativeSpent is max(0, pre-post) at idx; out-of-range indices spend nothing.
func nativeSpent(rec *domain.TransactionRecord, idx int) decimal.Decimal {
	if idx < 0 || idx >= len(rec.NativePreBalances) || idx >= len(rec.NativePostBalances) {
		return decimal.Zero
	}
	pre, post := rec.NativePreBalances[idx], rec.NativePostBalances[idx]
	if post >= pre {
		return decimal.Zero
	}
	return domain.LamportsToNative(pre - post)
}

// tokenReceived only looks at the first post balance held by actor in the
// target mint. The pre amount comes from the first matching pre balance.
func (e *BuyExtractor) tokenReceived(rec *domain.TransactionRecord, actor string) (decimal.Decimal, error) {
	post := findBalance(rec.TokenPostBalances, actor, e.targetToken)
	if post == nil {
		return decimal.Zero, nil
	}
	postAmt, err := post.Amount()
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrBadAmount, err)
	}

	preAmt := decimal.Zero
	if pre := findBalance(rec.TokenPreBalances, actor, e.targetToken); pre != nil {
		preAmt, err = pre.Amount()
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrBadAmount, err)
		}
	}

	delta := postAmt.Sub(preAmt)
	if delta.IsNegative() {
		return decimal.Zero, nil
	}
	return delta, nil
}

func findBalance(balances []domain.TokenBalance, owner, mint string) *domain.TokenBalance {
	for i := range balances {
		if balances[i].Owner == owner && balances[i].Mint == mint {
			return &balances[i]
		}
	}
	return nil
}

// SkipReason returns a short label for a skip error, for logs and metrics.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrFailedTx):
		return "failed"
	case errors.Is(err, ErrNoAccounts):
		return "no_accounts"
	case errors.Is(err, ErrNotSigner):
		return "not_signer"
	case errors.Is(err, ErrNoNativeSpend):
		return "no_native_spend"
	case errors.Is(err, ErrNoTokenGain):
		return "no_token_gain"
	case errors.Is(err, ErrBadAmount):
		return "bad_amount"
	case errors.Is(err, ErrNoDEXProgram):
		return "no_dex_program"
	default:
		return "other"
	}
}
