package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Category    string    `json:"category" gorm:"not null;size:100;index"`
	Description string    `json:"description" gorm:"type:text"`
	PosterURL   string    `json:"poster_url" gorm:"size:500"`
	OrganiserID uuid.UUID `json:"organiser_id" gorm:"type:uuid;not null;index"`
	Venues      []Venue   `json:"venues,omitempty" gorm:"foreignKey:EventID"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Venue is one location (and date range) at which an event runs
type Venue struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID       `json:"event_id" gorm:"type:uuid;not null;index"`
	Location    string          `json:"location" gorm:"not null;size:255"`
	StartDate   time.Time       `json:"start_date" gorm:"not null"`
	EndDate     time.Time       `json:"end_date" gorm:"not null"`
	TicketPrice decimal.Decimal `json:"ticket_price" gorm:"type:numeric(12,2);not null"`
	TotalSeats  int             `json:"total_seats" gorm:"not null"`
	SeatMapURL  string          `json:"seat_map_url" gorm:"size:500"`
	Timings     []Timing        `json:"timings,omitempty" gorm:"foreignKey:VenueID"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// Timing is a daily showtime at a venue, stored as HH:MM wall clock strings
type Timing struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	VenueID    uuid.UUID `json:"venue_id" gorm:"type:uuid;not null;index"`
	StartTime  string    `json:"start_time" gorm:"size:5;not null"`
	EndTime    string    `json:"end_time" gorm:"size:5;not null"`
	TotalSeats int       `json:"total_seats" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (v *Venue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (t *Timing) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}
