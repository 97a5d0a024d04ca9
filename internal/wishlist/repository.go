package wishlist

import (
	"context"
	"fmt"

	"bookd/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Add(ctx context.Context, item *Item) (bool, error)
	Remove(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Add reports false when the event was already saved
func (r *repository) Add(ctx context.Context, item *Item) (bool, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return true, nil
}

func (r *repository) Remove(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&Item{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove wishlist item: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	var items []Item
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}
