// Package normalization converts upstream transaction payloads into
// domain.TransactionRecord. Each payload shape has its own adapter.
package normalization

import (
	"errors"
	"fmt"

	"solana-buy-ranking/internal/domain"
)

// ErrMalformed is returned when a payload lacks a mandatory structural field
// (account key list or native balance arrays). Callers skip the record.
var ErrMalformed = errors.New("malformed transaction payload")

// Normalizer converts one payload shape P into the canonical record.
type Normalizer[P any] interface {
	Normalize(signature string, payload P) (*domain.TransactionRecord, error)
}

func malformed(signature, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, signature, reason)
}

// appendLoaded appends lookup-table addresses after the static keys so the
// key list stays aligned with the balance arrays.
func appendLoaded(keys []domain.AccountKey, writable, readonly []string) []domain.AccountKey {
	for _, addr := range writable {
		keys = append(keys, domain.AccountKey{Address: addr})
	}
	for _, addr := range readonly {
		keys = append(keys, domain.AccountKey{Address: addr})
	}
	return keys
}
