package stub

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"solana-buy-ranking/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Populate it before use; lookups are safe for concurrent readers.
type RPCClient struct {
	Transactions      map[string]json.RawMessage
	Signatures        map[string][]solana.SignatureInfo
	TransactionErrors map[string]error

	// SignaturesErr, when set, is returned by every GetSignaturesForAddress call.
	SignaturesErr error

	// Delay is applied to every GetTransaction call, honouring ctx.
	Delay time.Duration

	transactionCalls atomic.Int64
	signatureCalls   atomic.Int64
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions:      make(map[string]json.RawMessage),
		Signatures:        make(map[string][]solana.SignatureInfo),
		TransactionErrors: make(map[string]error),
	}
}

// GetTransaction returns the stored payload, nil, nil when unknown.
func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (json.RawMessage, error) {
	c.transactionCalls.Add(1)

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if err, ok := c.TransactionErrors[signature]; ok {
		return nil, err
	}

	raw, ok := c.Transactions[signature]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store,
// honouring Before and Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.signatureCalls.Add(1)

	if c.SignaturesErr != nil {
		return nil, c.SignaturesErr
	}

	sigs, ok := c.Signatures[address]
	if !ok {
		return nil, nil
	}

	if opts != nil && opts.Before != "" {
		start := len(sigs)
		for i, s := range sigs {
			if s.Signature == opts.Before {
				start = i + 1
				break
			}
		}
		sigs = sigs[start:]
	}

	// Apply limit if specified
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}

	return sigs, nil
}

// AddTransaction stores payload (marshalled to JSON) under signature.
func (c *RPCClient) AddTransaction(signature string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.Transactions[signature] = raw
	return nil
}

// AddSignatures adds signatures for an address to the stub store.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.Signatures[address] = sigs
}

// TransactionCalls returns how many GetTransaction calls were made.
func (c *RPCClient) TransactionCalls() int64 {
	return c.transactionCalls.Load()
}

// SignatureCalls returns how many GetSignaturesForAddress calls were made.
func (c *RPCClient) SignatureCalls() int64 {
	return c.signatureCalls.Load()
}

var _ solana.RPCClient = (*RPCClient)(nil)
