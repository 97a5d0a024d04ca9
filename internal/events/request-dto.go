package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateTimingRequest struct {
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	TotalSeats int    `json:"total_seats" binding:"required,min=1,max=100000"`
}

type CreateVenueRequest struct {
	Location    string                `json:"location" binding:"required,min=2,max=255"`
	StartDate   time.Time             `json:"start_date" binding:"required"`
	EndDate     time.Time             `json:"end_date" binding:"required"`
	TicketPrice decimal.Decimal       `json:"ticket_price"`
	TotalSeats  int                   `json:"total_seats" binding:"required,min=1,max=100000"`
	SeatMapURL  string                `json:"seat_map_url" binding:"omitempty,url"`
	Timings     []CreateTimingRequest `json:"timings" binding:"omitempty,dive"`
}

type CreateEventRequest struct {
	Name        string             `json:"name" binding:"required,min=3,max=255"`
	Category    string             `json:"category" binding:"required,min=2,max=100"`
	Description string             `json:"description" binding:"max=2000"`
	PosterURL   string             `json:"poster_url" binding:"omitempty,url"`
	Venue       CreateVenueRequest `json:"venue" binding:"required"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Category string `form:"category"`
	Search   string `form:"search"`
}
