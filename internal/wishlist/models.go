package wishlist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is one event saved by a user
type Item struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_event"`
	EventID   uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_event;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Item) TableName() string {
	return "wishlist_items"
}
