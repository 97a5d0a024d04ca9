package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookd/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	GetWithVenues(ctx context.Context, id uuid.UUID) (*Event, error)
	FindByOrganiserNameCategory(ctx context.Context, organiserID uuid.UUID, name, category string) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	ListByOrganiser(ctx context.Context, organiserID uuid.UUID) ([]Event, error)

	CreateVenue(ctx context.Context, venue *Venue) error
	GetVenue(ctx context.Context, eventID, venueID uuid.UUID) (*Venue, error)
	CreateTiming(ctx context.Context, timing *Timing) error
	GetTiming(ctx context.Context, venueID, timingID uuid.UUID) (*Timing, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return err
}

func withVenues(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Venues", func(db *gorm.DB) *gorm.DB { return db.Order("start_date ASC") }).
		Preload("Venues.Timings", func(db *gorm.DB) *gorm.DB { return db.Order("start_time ASC") })
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, notFound(err, "event")
	}
	return &event, nil
}

func (r *repository) GetWithVenues(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	if err := withVenues(r.db.WithContext(ctx)).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, notFound(err, "event")
	}
	return &event, nil
}

func (r *repository) FindByOrganiserNameCategory(ctx context.Context, organiserID uuid.UUID, name, category string) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Where("organiser_id = ? AND LOWER(name) = ? AND category = ?", organiserID, strings.ToLower(name), category).
		First(&event).Error
	if err != nil {
		return nil, notFound(err, "event")
	}
	return &event, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		venueIDs := tx.Model(&Venue{}).Select("id").Where("event_id = ?", id)
		if err := tx.Where("venue_id IN (?)", venueIDs).Delete(&Timing{}).Error; err != nil {
			return fmt.Errorf("failed to delete timings: %w", err)
		}
		if err := tx.Where("event_id = ?", id).Delete(&Venue{}).Error; err != nil {
			return fmt.Errorf("failed to delete venues: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&Event{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete event: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("event")
		}
		return nil
	})
}

func (r *repository) List(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&Event{})

	if query.Category != "" {
		db = db.Where("category = ?", strings.ToLower(strings.TrimSpace(query.Category)))
	}
	if query.Search != "" {
		searchTerm := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	// Share the filters between the count and the page query
	db = db.Session(&gorm.Session{})

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := withVenues(db).
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, totalCount, nil
}

func (r *repository) ListByOrganiser(ctx context.Context, organiserID uuid.UUID) ([]Event, error) {
	var events []Event
	err := withVenues(r.db.WithContext(ctx)).
		Where("organiser_id = ?", organiserID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

func (r *repository) CreateVenue(ctx context.Context, venue *Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *repository) GetVenue(ctx context.Context, eventID, venueID uuid.UUID) (*Venue, error) {
	var venue Venue
	err := r.db.WithContext(ctx).
		Preload("Timings", func(db *gorm.DB) *gorm.DB { return db.Order("start_time ASC") }).
		Where("id = ? AND event_id = ?", venueID, eventID).
		First(&venue).Error
	if err != nil {
		return nil, notFound(err, "venue")
	}
	return &venue, nil
}

func (r *repository) CreateTiming(ctx context.Context, timing *Timing) error {
	return r.db.WithContext(ctx).Create(timing).Error
}

func (r *repository) GetTiming(ctx context.Context, venueID, timingID uuid.UUID) (*Timing, error) {
	var timing Timing
	err := r.db.WithContext(ctx).Where("id = ? AND venue_id = ?", timingID, venueID).First(&timing).Error
	if err != nil {
		return nil, notFound(err, "timing")
	}
	return &timing, nil
}
