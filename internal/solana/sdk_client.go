package solana

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SDKClient queries the ledger through the solana-go RPC client and returns
// typed transaction results.
type SDKClient struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewSDKClient creates a typed RPC client for endpoint.
func NewSDKClient(endpoint string) *SDKClient {
	return &SDKClient{
		client:     rpc.New(endpoint),
		commitment: rpc.CommitmentConfirmed,
	}
}

// GetTransaction retrieves a transaction by signature.
// Returns nil, nil if the transaction is not found.
func (c *SDKClient) GetTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
	sig, err := sdk.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature %q: %w", signature, err)
	}

	maxVersion := uint64(0)
	result, err := c.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       sdk.EncodingBase64,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *SDKClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	account, err := sdk.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", address, err)
	}

	rpcOpts := &rpc.GetSignaturesForAddressOpts{Commitment: c.commitment}
	if opts != nil {
		if opts.Limit > 0 {
			limit := opts.Limit
			rpcOpts.Limit = &limit
		}
		if opts.Before != "" {
			if rpcOpts.Before, err = sdk.SignatureFromBase58(opts.Before); err != nil {
				return nil, fmt.Errorf("parse before signature: %w", err)
			}
		}
		if opts.Until != "" {
			if rpcOpts.Until, err = sdk.SignatureFromBase58(opts.Until); err != nil {
				return nil, fmt.Errorf("parse until signature: %w", err)
			}
		}
	}

	result, err := c.client.GetSignaturesForAddressWithOpts(ctx, account, rpcOpts)
	if err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, 0, len(result))
	for _, r := range result {
		if r == nil {
			continue
		}
		info := SignatureInfo{
			Signature: r.Signature.String(),
			Slot:      int64(r.Slot),
			Err:       r.Err,
		}
		if r.BlockTime != nil {
			bt := int64(*r.BlockTime)
			info.BlockTime = &bt
		}
		sigs = append(sigs, info)
	}

	return sigs, nil
}

// GetSlot retrieves the current slot.
func (c *SDKClient) GetSlot(ctx context.Context) (int64, error) {
	slot, err := c.client.GetSlot(ctx, c.commitment)
	if err != nil {
		return 0, err
	}
	return int64(slot), nil
}

// Close releases the underlying connection.
func (c *SDKClient) Close() error {
	return c.client.Close()
}
