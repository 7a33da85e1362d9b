package normalization

import (
	"fmt"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solana-buy-ranking/internal/domain"
)

// TypedNormalizer normalizes the typed getTransaction result produced by the
// solana-go SDK client.
type TypedNormalizer struct{}

// NewTypedNormalizer creates an SDK result normalizer.
func NewTypedNormalizer() *TypedNormalizer {
	return &TypedNormalizer{}
}

// Normalize decodes the binary transaction envelope and maps meta fields.
func (n *TypedNormalizer) Normalize(signature string, res *rpc.GetTransactionResult) (*domain.TransactionRecord, error) {
	if res == nil {
		return nil, malformed(signature, "nil result")
	}
	if res.Meta == nil {
		return nil, malformed(signature, "missing meta")
	}
	if res.Transaction == nil {
		return nil, malformed(signature, "missing transaction")
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode transaction: %v", ErrMalformed, signature, err)
	}
	if tx.Message.AccountKeys == nil {
		return nil, malformed(signature, "missing account keys")
	}
	if res.Meta.PreBalances == nil || res.Meta.PostBalances == nil {
		return nil, malformed(signature, "missing native balances")
	}

	keys := make([]domain.AccountKey, len(tx.Message.AccountKeys))
	for i, k := range tx.Message.AccountKeys {
		keys[i] = domain.AccountKey{
			Address: k.String(),
			Signer:  tx.Message.IsSigner(k),
		}
	}
	keys = appendLoaded(keys,
		publicKeyStrings(res.Meta.LoadedAddresses.Writable),
		publicKeyStrings(res.Meta.LoadedAddresses.ReadOnly),
	)

	rec := &domain.TransactionRecord{
		Signature:          signature,
		Slot:               int64(res.Slot),
		Failed:             res.Meta.Err != nil,
		AccountKeys:        keys,
		NativePreBalances:  res.Meta.PreBalances,
		NativePostBalances: res.Meta.PostBalances,
		TokenPreBalances:   convertSDKTokenBalances(res.Meta.PreTokenBalances),
		TokenPostBalances:  convertSDKTokenBalances(res.Meta.PostTokenBalances),
		LogMessages:        res.Meta.LogMessages,
	}
	if res.BlockTime != nil {
		bt := int64(*res.BlockTime)
		rec.BlockTime = &bt
	}
	return rec, nil
}

var _ Normalizer[*rpc.GetTransactionResult] = (*TypedNormalizer)(nil)

func publicKeyStrings(keys sdk.PublicKeySlice) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func convertSDKTokenBalances(in []rpc.TokenBalance) []domain.TokenBalance {
	out := make([]domain.TokenBalance, 0, len(in))
	for _, b := range in {
		tb := domain.TokenBalance{
			AccountIndex: int(b.AccountIndex),
			Mint:         b.Mint.String(),
			Decimals:     -1,
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			tb.RawAmount = b.UiTokenAmount.Amount
			tb.UIAmount = b.UiTokenAmount.UiAmountString
			tb.Decimals = int(b.UiTokenAmount.Decimals)
		}
		out = append(out, tb)
	}
	return out
}
