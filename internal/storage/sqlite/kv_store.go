// Package sqlite provides a single-file KVStore for local deployments.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/storage"
)

// kvEntry is the gorm model for the kv_store table.
type kvEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_store" }

// KVStore implements storage.KVStore on SQLite through gorm.
type KVStore struct {
	db *gorm.DB
}

// Compile-time interface check.
var _ storage.KVStore = (*KVStore)(nil)

// Open opens (or creates) the database at path and migrates kv_store.
// ":memory:" gives a private in-memory database.
func Open(path string) (*KVStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_store: %w", err)
	}
	return &KVStore{db: db}, nil
}

// NewKVStore wraps an already opened gorm handle. The caller migrates it.
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

// Close releases the underlying connection.
func (s *KVStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the value for key or storage.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) (value []byte, err error) {
	if key == "" {
		return nil, storage.ErrInvalidInput
	}
	defer func(started time.Time) {
		observability.RecordDBQuery("sqlite", "kv_get", started, ignoreNotFound(err))
	}(time.Now())

	var entry kvEntry
	if err := s.db.WithContext(ctx).Where(&kvEntry{Key: key}).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set inserts or replaces the value for key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) (err error) {
	if key == "" {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) {
		observability.RecordDBQuery("sqlite", "kv_set", started, err)
	}(time.Now())

	entry := kvEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) (err error) {
	if key == "" {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) {
		observability.RecordDBQuery("sqlite", "kv_delete", started, err)
	}(time.Now())

	if err := s.db.WithContext(ctx).Delete(&kvEntry{Key: key}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
