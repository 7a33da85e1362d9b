package storage

import (
	"context"

	"solana-buy-ranking/internal/domain"
)

// KVStore is a byte-oriented key-value backend.
type KVStore interface {
	// Get returns the value for key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// CompetitionStore holds at most one competition per group.
type CompetitionStore interface {
	// Get returns the group's competition. Returns ErrNotFound if none was started.
	Get(ctx context.Context, groupID string) (*domain.Competition, error)

	// Put stores c, overwriting any previous competition of c.GroupID.
	Put(ctx context.Context, c *domain.Competition) error
}

// WalletStore holds wallet registrations, one per user per group.
type WalletStore interface {
	// Put stores reg, overwriting the user's previous wallet in the group.
	Put(ctx context.Context, reg *domain.WalletRegistration) error

	// ListByGroup returns registrations ordered by user ID.
	// Returns an empty slice if the group has none.
	ListByGroup(ctx context.Context, groupID string) ([]*domain.WalletRegistration, error)
}

// BuyEventArchive keeps classified buys for offline analysis.
// Inserting the same event twice must not create a second row.
type BuyEventArchive interface {
	InsertBuyEvents(ctx context.Context, groupID, token string, events []*domain.BuyEvent) error
}
