package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	kvDatamodel "github.com/alicomputer/retail-pos/internal/core/datamodel/kv"
	"github.com/alicomputer/retail-pos/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVStore persists entries in the kv_entries table. It runs on postgres or sqlite.
type KVStore struct {
	db *gorm.DB
}

func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry kvDatamodel.Entry
	err := s.db.WithContext(ctx).Where(&kvDatamodel.Entry{Key: key}).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("store/postgres: get: %w", err)
	}
	return entry.Value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	entry := kvDatamodel.Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("store/postgres: set: %w", err)
	}
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where(&kvDatamodel.Entry{Key: key}).Delete(&kvDatamodel.Entry{}).Error; err != nil {
		return fmt.Errorf("store/postgres: remove: %w", err)
	}
	return nil
}

var _ store.Store = (*KVStore)(nil)
