package wishlist

import (
	"context"
	"errors"

	"bookd/internal/events"
	"bookd/internal/shared/apperrors"
	"bookd/pkg/logger"

	"github.com/google/uuid"
)

// Catalog is the part of the event service the wishlist needs
type Catalog interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type Service interface {
	Add(ctx context.Context, userID, eventID uuid.UUID) (*WishlistResponse, error)
	Remove(ctx context.Context, userID, eventID uuid.UUID) (*WishlistResponse, error)
	List(ctx context.Context, userID uuid.UUID) (*WishlistResponse, error)
}

type service struct {
	repo    Repository
	catalog Catalog
	logger  *logger.Logger
}

func NewService(repo Repository, catalog Catalog) Service {
	return &service{
		repo:    repo,
		catalog: catalog,
		logger:  logger.GetDefault().WithComponent("wishlist"),
	}
}

func (s *service) Add(ctx context.Context, userID, eventID uuid.UUID) (*WishlistResponse, error) {
	if _, err := s.catalog.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	added, err := s.repo.Add(ctx, &Item{UserID: userID, EventID: eventID})
	if err != nil {
		return nil, err
	}
	if added {
		s.logger.DebugContext(ctx, "event saved to wishlist", "user_id", userID.String(), "event_id", eventID.String())
	}
	return s.List(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, eventID uuid.UUID) (*WishlistResponse, error) {
	removed, err := s.repo.Remove(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, apperrors.NotFound("wishlist item")
	}
	return s.List(ctx, userID)
}

// List skips events deleted since they were saved
func (s *service) List(ctx context.Context, userID uuid.UUID) (*WishlistResponse, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]WishlistEntry, 0, len(items))
	for _, item := range items {
		event, err := s.catalog.GetEvent(ctx, item.EventID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, WishlistEntry{Event: event.ToResponse(), SavedAt: item.CreatedAt})
	}

	return &WishlistResponse{Events: entries, Count: len(entries)}, nil
}
