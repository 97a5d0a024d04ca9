package analytics

import (
	"context"
	"fmt"
	"time"

	"bookd/internal/events"
	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/middleware"
	"bookd/pkg/cache"

	"github.com/google/uuid"
)

// Catalog resolves venue and timing capacities for occupancy figures
type Catalog interface {
	GetEventDetail(ctx context.Context, id uuid.UUID) (*events.EventResponse, error)
}

type Service interface {
	GetDashboardAnalytics(ctx context.Context) (*DashboardAnalytics, error)
	GetEventAnalytics(ctx context.Context, caller middleware.Principal, eventID uuid.UUID) (*EventAnalytics, error)
}

type service struct {
	repo    Repository
	catalog Catalog
	cache   cache.Service
	now     func() time.Time
}

// NewService builds the analytics service; a nil cache reads straight through
func NewService(repo Repository, catalog Catalog, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoop()
	}
	return &service{
		repo:    repo,
		catalog: catalog,
		cache:   cacheService,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) GetDashboardAnalytics(ctx context.Context) (*DashboardAnalytics, error) {
	var dashboard DashboardAnalytics
	err := s.cache.GetOrSet(ctx, cache.AnalyticsDashboardKey(), cache.TTLAnalytics, &dashboard, func() (interface{}, error) {
		return s.repo.GetDashboard(ctx, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard analytics: %w", err)
	}
	return &dashboard, nil
}

// GetEventAnalytics is open to admins and the event's organiser
func (s *service) GetEventAnalytics(ctx context.Context, caller middleware.Principal, eventID uuid.UUID) (*EventAnalytics, error) {
	event, err := s.catalog.GetEventDetail(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && event.OrganiserID != caller.ID.String() {
		return nil, fmt.Errorf("%w: not the organiser of this event", apperrors.ErrForbidden)
	}

	var result EventAnalytics
	err = s.cache.GetOrSet(ctx, cache.AnalyticsEventKey(eventID.String()), cache.TTLAnalytics, &result, func() (interface{}, error) {
		return s.buildEventAnalytics(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) buildEventAnalytics(ctx context.Context, event *events.EventResponse) (*EventAnalytics, error) {
	eventID := uuid.MustParse(event.ID)

	counts, err := s.repo.SeatsSoldByShow(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sold := make(map[string]int64, len(counts))
	for _, c := range counts {
		sold[c.VenueID+"/"+c.TimingID] = c.Total
	}

	revenue, err := s.repo.EventRevenue(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := &EventAnalytics{
		EventID:     event.ID,
		Name:        event.Name,
		Revenue:     revenue,
		Shows:       []ShowSales{},
		GeneratedAt: s.now(),
	}

	for _, venue := range event.Venues {
		if len(venue.Timings) == 0 {
			show := newShowSales(venue, nil, sold[venue.ID+"/"+uuid.Nil.String()])
			result.Shows = append(result.Shows, show)
			result.SeatsSold += show.SeatsSold
			continue
		}
		for i := range venue.Timings {
			timing := venue.Timings[i]
			show := newShowSales(venue, &timing, sold[venue.ID+"/"+timing.ID])
			result.Shows = append(result.Shows, show)
			result.SeatsSold += show.SeatsSold
		}
	}

	return result, nil
}

func newShowSales(venue events.VenueResponse, timing *events.TimingResponse, seatsSold int64) ShowSales {
	show := ShowSales{
		VenueID:   venue.ID,
		Location:  venue.Location,
		Capacity:  venue.TotalSeats,
		SeatsSold: seatsSold,
	}
	if timing != nil {
		id := timing.ID
		show.TimingID = &id
		show.StartTime = timing.StartTime
		show.Capacity = timing.TotalSeats
	}
	if show.Capacity > 0 {
		show.Occupancy = float64(seatsSold) / float64(show.Capacity)
	}
	return show
}
