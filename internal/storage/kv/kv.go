// Package kv implements the competition and wallet stores on top of any
// storage.KVStore, encoding values as JSON.
package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-buy-ranking/internal/storage"
)

// Key prefixes.
const (
	competitionPrefix = "competition:"
	walletsPrefix     = "wallets:"
)

// CompetitionKey returns the key holding a group's competition.
func CompetitionKey(groupID string) string {
	return competitionPrefix + groupID
}

// WalletsKey returns the key holding a group's wallet registrations.
func WalletsKey(groupID string) string {
	return walletsPrefix + groupID
}

func getJSON(ctx context.Context, kv storage.KVStore, key string, out interface{}) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, kv storage.KVStore, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}
