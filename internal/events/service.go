package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/middleware"
	"bookd/pkg/cache"
	"bookd/pkg/logger"

	"github.com/google/uuid"
)

var timingPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Service interface {
	SetOrganiserVerifier(verifier OrganiserVerifier)
	SetReservationCounter(counter ReservationCounter)

	// Lookups used by the booking ledger; always read from the database
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	GetVenue(ctx context.Context, eventID, venueID uuid.UUID) (*Venue, error)
	GetTiming(ctx context.Context, venueID, timingID uuid.UUID) (*Timing, error)

	// Browsing, served through the cache
	GetEventDetail(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	GetVenueDetail(ctx context.Context, eventID, venueID uuid.UUID) (*VenueResponse, error)
	ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	ListOrganiserEvents(ctx context.Context, organiserID uuid.UUID) ([]EventResponse, error)

	// Organiser management
	CreateEvent(ctx context.Context, caller middleware.Principal, req CreateEventRequest) (*CreateEventResponse, error)
	AddVenue(ctx context.Context, caller middleware.Principal, eventID uuid.UUID, req CreateVenueRequest) (*VenueResponse, error)
	AddTiming(ctx context.Context, caller middleware.Principal, eventID, venueID uuid.UUID, req CreateTimingRequest) (*TimingResponse, error)
	DeleteEvent(ctx context.Context, caller middleware.Principal, eventID uuid.UUID) error
}

// OrganiserVerifier interface to avoid circular dependency with companies
type OrganiserVerifier interface {
	IsVerifiedOrganiser(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ReservationCounter interface to avoid circular dependency with bookings
type ReservationCounter interface {
	CountLiveForEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
}

type service struct {
	repo     Repository
	cache    cache.Service
	verifier OrganiserVerifier
	counter  ReservationCounter
	logger   *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoop()
	}
	return &service{
		repo:   repo,
		cache:  cacheService,
		logger: logger.GetDefault().WithComponent("events"),
	}
}

func (s *service) SetOrganiserVerifier(verifier OrganiserVerifier) {
	s.verifier = verifier
}

func (s *service) SetReservationCounter(counter ReservationCounter) {
	s.counter = counter
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetVenue(ctx context.Context, eventID, venueID uuid.UUID) (*Venue, error) {
	return s.repo.GetVenue(ctx, eventID, venueID)
}

func (s *service) GetTiming(ctx context.Context, venueID, timingID uuid.UUID) (*Timing, error) {
	return s.repo.GetTiming(ctx, venueID, timingID)
}

func (s *service) GetEventDetail(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	var resp EventResponse
	err := s.cache.GetOrSet(ctx, cache.EventDetailKey(id.String()), cache.TTLEventDetail, &resp, func() (interface{}, error) {
		event, err := s.repo.GetWithVenues(ctx, id)
		if err != nil {
			return nil, err
		}
		return event.ToResponse(), nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) GetVenueDetail(ctx context.Context, eventID, venueID uuid.UUID) (*VenueResponse, error) {
	venue, err := s.repo.GetVenue(ctx, eventID, venueID)
	if err != nil {
		return nil, err
	}
	resp := venue.ToResponse()
	return &resp, nil
}

func (s *service) ListEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 20
	}
	query.Category = normaliseCategory(query.Category)
	query.Search = strings.TrimSpace(query.Search)

	key := cache.EventListKey(query.Category, query.Search, query.Page, query.Limit)
	var page PaginatedEvents
	err := s.cache.GetOrSet(ctx, key, cache.TTLEventList, &page, func() (interface{}, error) {
		events, total, err := s.repo.List(ctx, query)
		if err != nil {
			return nil, err
		}
		responses := make([]EventResponse, 0, len(events))
		for i := range events {
			responses = append(responses, events[i].ToResponse())
		}
		return PaginatedEvents{
			Events:     responses,
			TotalCount: total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: int(math.Ceil(float64(total) / float64(query.Limit))),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *service) ListOrganiserEvents(ctx context.Context, organiserID uuid.UUID) ([]EventResponse, error) {
	events, err := s.repo.ListByOrganiser(ctx, organiserID)
	if err != nil {
		return nil, err
	}
	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}
	return responses, nil
}

// CreateEvent creates an event with its first venue. When the organiser
// already runs an event with the same name and category, the venue is
// appended to that event instead.
func (s *service) CreateEvent(ctx context.Context, caller middleware.Principal, req CreateEventRequest) (*CreateEventResponse, error) {
	if err := s.requireVerified(ctx, caller); err != nil {
		return nil, err
	}

	venue, err := buildVenue(req.Venue)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	category := normaliseCategory(req.Category)

	existing, err := s.repo.FindByOrganiserNameCategory(ctx, caller.ID, name, category)
	switch {
	case err == nil:
		venue.EventID = existing.ID
		if err := s.repo.CreateVenue(ctx, venue); err != nil {
			return nil, err
		}
		s.invalidate(ctx, existing.ID)
		event, err := s.repo.GetWithVenues(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		return &CreateEventResponse{Event: event.ToResponse(), Appended: true}, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	event := &Event{
		Name:        name,
		Category:    category,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		OrganiserID: caller.ID,
		Venues:      []Venue{*venue},
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.LogEventCreated(ctx, event.ID.String(), caller.ID.String())
	s.invalidate(ctx, event.ID)

	return &CreateEventResponse{Event: event.ToResponse()}, nil
}

func (s *service) AddVenue(ctx context.Context, caller middleware.Principal, eventID uuid.UUID, req CreateVenueRequest) (*VenueResponse, error) {
	if _, err := s.ownedEvent(ctx, caller, eventID); err != nil {
		return nil, err
	}

	venue, err := buildVenue(req)
	if err != nil {
		return nil, err
	}
	venue.EventID = eventID

	if err := s.repo.CreateVenue(ctx, venue); err != nil {
		return nil, err
	}
	s.invalidate(ctx, eventID)

	resp := venue.ToResponse()
	return &resp, nil
}

func (s *service) AddTiming(ctx context.Context, caller middleware.Principal, eventID, venueID uuid.UUID, req CreateTimingRequest) (*TimingResponse, error) {
	if _, err := s.ownedEvent(ctx, caller, eventID); err != nil {
		return nil, err
	}
	venue, err := s.repo.GetVenue(ctx, eventID, venueID)
	if err != nil {
		return nil, err
	}

	timing, err := buildTiming(req, venue.TotalSeats)
	if err != nil {
		return nil, err
	}
	timing.VenueID = venueID

	if err := s.repo.CreateTiming(ctx, timing); err != nil {
		return nil, err
	}
	s.invalidate(ctx, eventID)

	resp := timing.ToResponse()
	return &resp, nil
}

func (s *service) DeleteEvent(ctx context.Context, caller middleware.Principal, eventID uuid.UUID) error {
	if _, err := s.ownedEvent(ctx, caller, eventID); err != nil {
		return err
	}

	if s.counter != nil {
		live, err := s.counter.CountLiveForEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if live > 0 {
			return apperrors.ErrInvalidState
		}
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	return nil
}

func (s *service) requireVerified(ctx context.Context, caller middleware.Principal) error {
	if caller.IsAdmin() || s.verifier == nil {
		return nil
	}
	ok, err := s.verifier.IsVerifiedOrganiser(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: organiser company is not verified", apperrors.ErrForbidden)
	}
	return nil
}

func (s *service) ownedEvent(ctx context.Context, caller middleware.Principal, eventID uuid.UUID) (*Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganiserID != caller.ID && !caller.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return event, nil
}

func (s *service) invalidate(ctx context.Context, eventID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.EventDetailKey(eventID.String())); err != nil {
		s.logger.Warn("failed to invalidate event cache", "event_id", eventID.String(), "error", err)
	}
	if err := s.cache.DeletePattern(ctx, cache.EventListPattern()); err != nil {
		s.logger.Warn("failed to invalidate event listings", "error", err)
	}
}

func normaliseCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func buildVenue(req CreateVenueRequest) (*Venue, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, apperrors.Invalid("venue end date is before its start date")
	}
	if req.TicketPrice.IsNegative() {
		return nil, apperrors.Invalid("ticket price must not be negative")
	}

	venue := &Venue{
		Location:    strings.TrimSpace(req.Location),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TicketPrice: req.TicketPrice.Round(2),
		TotalSeats:  req.TotalSeats,
		SeatMapURL:  req.SeatMapURL,
	}
	for _, t := range req.Timings {
		timing, err := buildTiming(t, req.TotalSeats)
		if err != nil {
			return nil, err
		}
		venue.Timings = append(venue.Timings, *timing)
	}
	return venue, nil
}

func buildTiming(req CreateTimingRequest, venueSeats int) (*Timing, error) {
	if !timingPattern.MatchString(req.StartTime) || !timingPattern.MatchString(req.EndTime) {
		return nil, apperrors.Invalid("timings must use HH:MM")
	}
	if req.EndTime <= req.StartTime {
		return nil, apperrors.Invalid("timing %s-%s ends before it starts", req.StartTime, req.EndTime)
	}
	if req.TotalSeats > venueSeats {
		return nil, apperrors.Invalid("timing capacity %d exceeds venue capacity %d", req.TotalSeats, venueSeats)
	}
	return &Timing{
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TotalSeats: req.TotalSeats,
	}, nil
}
