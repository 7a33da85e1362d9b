package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"

	"solana-buy-ranking/internal/domain"
)

// JSONRPCNormalizer normalizes the raw getTransaction result as returned by
// the JSON-RPC API in json or jsonParsed encoding.
type JSONRPCNormalizer struct{}

// NewJSONRPCNormalizer creates a JSON-RPC payload normalizer.
func NewJSONRPCNormalizer() *JSONRPCNormalizer {
	return &JSONRPCNormalizer{}
}

// Normalize decodes payload. Absent token balance arrays and amount fields
// are tolerated; absent account keys or native balances are ErrMalformed.
func (n *JSONRPCNormalizer) Normalize(signature string, payload json.RawMessage) (*domain.TransactionRecord, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, malformed(signature, "empty payload")
	}

	var raw rawTransaction
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrMalformed, signature, err)
	}

	if raw.Meta == nil {
		return nil, malformed(signature, "missing meta")
	}
	if raw.Transaction == nil || raw.Transaction.Message == nil || raw.Transaction.Message.AccountKeys == nil {
		return nil, malformed(signature, "missing account keys")
	}
	if raw.Meta.PreBalances == nil || raw.Meta.PostBalances == nil {
		return nil, malformed(signature, "missing native balances")
	}

	msg := raw.Transaction.Message
	keys := make([]domain.AccountKey, len(msg.AccountKeys))
	for i, k := range msg.AccountKeys {
		keys[i] = domain.AccountKey{
			Address: k.Pubkey,
			Signer:  msg.isSigner(i, k),
		}
	}
	if raw.Meta.LoadedAddresses != nil {
		keys = appendLoaded(keys, raw.Meta.LoadedAddresses.Writable, raw.Meta.LoadedAddresses.Readonly)
	}

	return &domain.TransactionRecord{
		Signature:          signature,
		Slot:               raw.Slot,
		BlockTime:          raw.BlockTime,
		Failed:             raw.Meta.Err != nil,
		AccountKeys:        keys,
		NativePreBalances:  raw.Meta.PreBalances,
		NativePostBalances: raw.Meta.PostBalances,
		TokenPreBalances:   convertRawTokenBalances(raw.Meta.PreTokenBalances),
		TokenPostBalances:  convertRawTokenBalances(raw.Meta.PostTokenBalances),
		LogMessages:        raw.Meta.LogMessages,
	}, nil
}

var _ Normalizer[json.RawMessage] = (*JSONRPCNormalizer)(nil)

type rawTransaction struct {
	Slot        int64        `json:"slot"`
	BlockTime   *int64       `json:"blockTime"`
	Meta        *rawMeta     `json:"meta"`
	Transaction *rawEnvelope `json:"transaction"`
}

type rawEnvelope struct {
	Signatures []string    `json:"signatures"`
	Message    *rawMessage `json:"message"`
}

type rawMessage struct {
	AccountKeys []rawAccountKey `json:"accountKeys"`
	Header      *rawHeader      `json:"header"`
}

type rawHeader struct {
	NumRequiredSignatures int `json:"numRequiredSignatures"`
}

// isSigner uses the explicit jsonParsed flag when present, then the message
// header. Without either, only the fee payer is assumed to have signed.
func (m *rawMessage) isSigner(index int, key rawAccountKey) bool {
	if key.Signer != nil {
		return *key.Signer
	}
	if m.Header != nil {
		return index < m.Header.NumRequiredSignatures
	}
	return index == 0
}

// rawAccountKey accepts both a plain address string (json encoding) and an
// object with pubkey/signer (jsonParsed encoding).
type rawAccountKey struct {
	Pubkey string
	Signer *bool
}

func (k *rawAccountKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &k.Pubkey)
	}

	var obj struct {
		Pubkey string `json:"pubkey"`
		Signer *bool  `json:"signer"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Pubkey = obj.Pubkey
	k.Signer = obj.Signer
	return nil
}

type rawMeta struct {
	Err               interface{}         `json:"err"`
	PreBalances       []uint64            `json:"preBalances"`
	PostBalances      []uint64            `json:"postBalances"`
	PreTokenBalances  []rawTokenBalance   `json:"preTokenBalances"`
	PostTokenBalances []rawTokenBalance   `json:"postTokenBalances"`
	LogMessages       []string            `json:"logMessages"`
	LoadedAddresses   *rawLoadedAddresses `json:"loadedAddresses"`
}

type rawLoadedAddresses struct {
	Writable []string `json:"writable"`
	Readonly []string `json:"readonly"`
}

type rawTokenBalance struct {
	AccountIndex  int               `json:"accountIndex"`
	Mint          string            `json:"mint"`
	Owner         string            `json:"owner"`
	UITokenAmount *rawUITokenAmount `json:"uiTokenAmount"`
}

type rawUITokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       *int   `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

func convertRawTokenBalances(in []rawTokenBalance) []domain.TokenBalance {
	out := make([]domain.TokenBalance, 0, len(in))
	for _, b := range in {
		tb := domain.TokenBalance{
			AccountIndex: b.AccountIndex,
			Owner:        b.Owner,
			Mint:         b.Mint,
			Decimals:     -1,
		}
		if b.UITokenAmount != nil {
			tb.RawAmount = b.UITokenAmount.Amount
			tb.UIAmount = b.UITokenAmount.UIAmountString
			if b.UITokenAmount.Decimals != nil {
				tb.Decimals = *b.UITokenAmount.Decimals
			}
		}
		out = append(out, tb)
	}
	return out
}
