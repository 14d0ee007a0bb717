package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item is one persisted key-value entry.
type Item struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// KVRepository stores string values under string keys.
type KVRepository struct {
	db *gorm.DB
}

func NewKVRepository(db *gorm.DB) *KVRepository {
	return &KVRepository{db: db}
}

// GetItem returns the value stored under key. found is false when the key
// has never been written.
func (r *KVRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item Item
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	switch {
	case err == nil:
		return item.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
}

// SetItem inserts or overwrites the value under key.
func (r *KVRepository) SetItem(ctx context.Context, key, value string) error {
	item := Item{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}
