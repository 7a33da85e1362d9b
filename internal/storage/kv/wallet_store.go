package kv

import (
	"context"
	"errors"
	"sort"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/storage"
)

// WalletStore implements storage.WalletStore on a KVStore. All of a group's
// registrations live under one key, so Put is a read-modify-write. Callers
// serialize writers per group.
type WalletStore struct {
	kv storage.KVStore
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(kv storage.KVStore) *WalletStore {
	return &WalletStore{kv: kv}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Put stores reg, replacing the user's previous wallet in the group.
func (s *WalletStore) Put(ctx context.Context, reg *domain.WalletRegistration) error {
	if reg == nil || reg.GroupID == "" || reg.UserID == "" || reg.Wallet == "" {
		return storage.ErrInvalidInput
	}

	byUser, err := s.load(ctx, reg.GroupID)
	if err != nil {
		return err
	}
	byUser[reg.UserID] = reg
	return setJSON(ctx, s.kv, WalletsKey(reg.GroupID), byUser)
}

// ListByGroup returns registrations ordered by user ID.
func (s *WalletStore) ListByGroup(ctx context.Context, groupID string) ([]*domain.WalletRegistration, error) {
	byUser, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.WalletRegistration, 0, len(byUser))
	for _, reg := range byUser {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *WalletStore) load(ctx context.Context, groupID string) (map[string]*domain.WalletRegistration, error) {
	byUser := make(map[string]*domain.WalletRegistration)
	err := getJSON(ctx, s.kv, WalletsKey(groupID), &byUser)
	if errors.Is(err, storage.ErrNotFound) {
		return byUser, nil
	}
	if err != nil {
		return nil, err
	}
	return byUser, nil
}
