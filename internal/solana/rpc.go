package solana

import (
	"context"
	"encoding/json"
)

// RPCClient defines the Solana JSON-RPC surface used to build rankings.
type RPCClient interface {
	// GetTransaction retrieves the raw getTransaction result (jsonParsed encoding).
	// Returns nil, nil when the ledger does not know the signature.
	GetTransaction(ctx context.Context, signature string) (json.RawMessage, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)
}
