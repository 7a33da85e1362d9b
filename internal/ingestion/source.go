package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/normalization"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/solana"
)

// Source is the ledger query surface the fetcher depends on.
type Source interface {
	// ListSignatures returns signatures for address, newest first.
	ListSignatures(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error)

	// FetchRecord returns the normalized transaction, nil, nil when unknown.
	// Payloads that cannot be normalized return an error wrapping
	// normalization.ErrMalformed.
	FetchRecord(ctx context.Context, signature string) (*domain.TransactionRecord, error)
}

// RPCSource reads raw JSON-RPC payloads and normalizes them.
type RPCSource struct {
	client     solana.RPCClient
	normalizer *normalization.JSONRPCNormalizer
}

// NewRPCSource creates a Source over a JSON-RPC client.
func NewRPCSource(client solana.RPCClient) *RPCSource {
	return &RPCSource{
		client:     client,
		normalizer: normalization.NewJSONRPCNormalizer(),
	}
}

// ListSignatures implements Source.
func (s *RPCSource) ListSignatures(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	defer observability.RecordRPCLatency("getSignaturesForAddress", time.Now())
	return s.client.GetSignaturesForAddress(ctx, address, opts)
}

// FetchRecord implements Source.
func (s *RPCSource) FetchRecord(ctx context.Context, signature string) (*domain.TransactionRecord, error) {
	started := time.Now()
	raw, err := s.client.GetTransaction(ctx, signature)
	observability.RecordRPCLatency("getTransaction", started)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if raw == nil {
		return nil, nil
	}
	return s.normalizer.Normalize(signature, json.RawMessage(raw))
}

// TypedClient is the typed ledger client used by SDKSource.
// solana.SDKClient implements it.
type TypedClient interface {
	GetTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, error)
	GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error)
}

// SDKSource reads typed results from the solana-go client.
type SDKSource struct {
	client     TypedClient
	normalizer *normalization.TypedNormalizer
}

// NewSDKSource creates a Source over a typed client.
func NewSDKSource(client TypedClient) *SDKSource {
	return &SDKSource{
		client:     client,
		normalizer: normalization.NewTypedNormalizer(),
	}
}

// ListSignatures implements Source.
func (s *SDKSource) ListSignatures(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	defer observability.RecordRPCLatency("getSignaturesForAddress", time.Now())
	return s.client.GetSignaturesForAddress(ctx, address, opts)
}

// FetchRecord implements Source.
func (s *SDKSource) FetchRecord(ctx context.Context, signature string) (*domain.TransactionRecord, error) {
	started := time.Now()
	res, err := s.client.GetTransaction(ctx, signature)
	observability.RecordRPCLatency("getTransaction", started)
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if res == nil {
		return nil, nil
	}
	return s.normalizer.Normalize(signature, res)
}

var (
	_ Source      = (*RPCSource)(nil)
	_ Source      = (*SDKSource)(nil)
	_ TypedClient = (*solana.SDKClient)(nil)
)
