package wishlist

import (
	"time"

	"bookd/internal/events"
)

type WishlistEntry struct {
	Event   events.EventResponse `json:"event"`
	SavedAt time.Time            `json:"saved_at"`
}

type WishlistResponse struct {
	Events []WishlistEntry `json:"events"`
	Count  int             `json:"count"`
}
