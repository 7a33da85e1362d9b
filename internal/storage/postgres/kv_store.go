package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/storage"
)

// KVStore implements storage.KVStore using PostgreSQL.
type KVStore struct {
	pool *Pool
}

// NewKVStore creates a new KVStore.
func NewKVStore(pool *Pool) *KVStore {
	return &KVStore{pool: pool}
}

// Compile-time interface check.
var _ storage.KVStore = (*KVStore)(nil)

// Get retrieves a value by key. Returns ErrNotFound if not exists.
func (s *KVStore) Get(ctx context.Context, key string) (value []byte, err error) {
	defer func(started time.Time) {
		observability.RecordDBQuery("postgres", "kv_get", started, ignoreNotFound(err))
	}(time.Now())

	query := `SELECT value FROM kv_store WHERE key = $1`

	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		if isUndefinedTableError(err) {
			return nil, fmt.Errorf("get kv %s: kv_store table missing, run migrations: %w", key, err)
		}
		return nil, fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) (err error) {
	if key == "" {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) {
		observability.RecordDBQuery("postgres", "kv_set", started, err)
	}(time.Now())

	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) (err error) {
	defer func(started time.Time) {
		observability.RecordDBQuery("postgres", "kv_delete", started, err)
	}(time.Now())

	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
