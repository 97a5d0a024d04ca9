package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimingResponse struct {
	ID         string `json:"id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	TotalSeats int    `json:"total_seats"`
}

type VenueResponse struct {
	ID          string           `json:"id"`
	EventID     string           `json:"event_id"`
	Location    string           `json:"location"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	TicketPrice decimal.Decimal  `json:"ticket_price"`
	TotalSeats  int              `json:"total_seats"`
	SeatMapURL  string           `json:"seat_map_url,omitempty"`
	Timings     []TimingResponse `json:"timings"`
}

type EventResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	PosterURL   string          `json:"poster_url,omitempty"`
	OrganiserID string          `json:"organiser_id"`
	Venues      []VenueResponse `json:"venues"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// CreateEventResponse reports whether the venue was appended to an existing event
type CreateEventResponse struct {
	Event    EventResponse `json:"event"`
	Appended bool          `json:"appended"`
}

func (t *Timing) ToResponse() TimingResponse {
	return TimingResponse{
		ID:         t.ID.String(),
		StartTime:  t.StartTime,
		EndTime:    t.EndTime,
		TotalSeats: t.TotalSeats,
	}
}

func (v *Venue) ToResponse() VenueResponse {
	timings := make([]TimingResponse, 0, len(v.Timings))
	for i := range v.Timings {
		timings = append(timings, v.Timings[i].ToResponse())
	}
	return VenueResponse{
		ID:          v.ID.String(),
		EventID:     v.EventID.String(),
		Location:    v.Location,
		StartDate:   v.StartDate,
		EndDate:     v.EndDate,
		TicketPrice: v.TicketPrice,
		TotalSeats:  v.TotalSeats,
		SeatMapURL:  v.SeatMapURL,
		Timings:     timings,
	}
}

func (e *Event) ToResponse() EventResponse {
	venues := make([]VenueResponse, 0, len(e.Venues))
	for i := range e.Venues {
		venues = append(venues, e.Venues[i].ToResponse())
	}
	return EventResponse{
		ID:          e.ID.String(),
		Name:        e.Name,
		Category:    e.Category,
		Description: e.Description,
		PosterURL:   e.PosterURL,
		OrganiserID: e.OrganiserID.String(),
		Venues:      venues,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
