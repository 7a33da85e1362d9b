package kv

import (
	"context"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/storage"
)

// CompetitionStore implements storage.CompetitionStore on a KVStore.
type CompetitionStore struct {
	kv storage.KVStore
}

// NewCompetitionStore creates a new CompetitionStore.
func NewCompetitionStore(kv storage.KVStore) *CompetitionStore {
	return &CompetitionStore{kv: kv}
}

// Compile-time interface check.
var _ storage.CompetitionStore = (*CompetitionStore)(nil)

// Get returns the group's competition. Returns ErrNotFound if none.
func (s *CompetitionStore) Get(ctx context.Context, groupID string) (*domain.Competition, error) {
	var c domain.Competition
	if err := getJSON(ctx, s.kv, CompetitionKey(groupID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Put overwrites the group's competition.
func (s *CompetitionStore) Put(ctx context.Context, c *domain.Competition) error {
	if c == nil || c.GroupID == "" {
		return storage.ErrInvalidInput
	}
	return setJSON(ctx, s.kv, CompetitionKey(c.GroupID), c)
}
