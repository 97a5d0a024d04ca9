package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShowKey identifies one bookable show. TimingID is uuid.Nil when the venue has no timings.
type ShowKey struct {
	EventID  uuid.UUID
	VenueID  uuid.UUID
	TimingID uuid.UUID
}

// NewShowKey builds a ShowKey from an optional timing id
func NewShowKey(eventID, venueID uuid.UUID, timingID *uuid.UUID) ShowKey {
	key := ShowKey{EventID: eventID, VenueID: venueID}
	if timingID != nil {
		key.TimingID = *timingID
	}
	return key
}

// Reservation is one booking submission for a show
type Reservation struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	EventID      uuid.UUID         `json:"event_id" gorm:"type:uuid;not null;index:idx_reservation_show,priority:1"`
	VenueID      uuid.UUID         `json:"venue_id" gorm:"type:uuid;not null;index:idx_reservation_show,priority:2"`
	TimingID     uuid.UUID         `json:"timing_id" gorm:"type:uuid;not null;index:idx_reservation_show,priority:3"`
	UserID       uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	Status       ReservationStatus `json:"status" gorm:"size:20;not null;default:'PENDING';index"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty" gorm:"index"`
	CancelReason string            `json:"cancel_reason,omitempty" gorm:"size:50"`
	ConfirmedAt  *time.Time        `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	Holds        []SeatHold        `json:"holds,omitempty" gorm:"foreignKey:ReservationID"`
	CreatedAt    time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// SeatHold is the part of a reservation owned by one holder, with its payment state
type SeatHold struct {
	ID                uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ReservationID     uuid.UUID       `json:"reservation_id" gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Seats             []string        `json:"seats" gorm:"serializer:json;type:text;not null"`
	UnitPrice         decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;not null"`
	PaymentStatus     PaymentStatus   `json:"payment_status" gorm:"size:20;not null;default:'PENDING'"`
	PaymentReference  *string         `json:"payment_reference,omitempty" gorm:"size:255;uniqueIndex"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty" gorm:"size:255;index"`
	AmountPaid        decimal.Decimal `json:"amount_paid" gorm:"type:numeric(12,2);not null;default:0"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty" gorm:"size:50"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// SeatClaim owns one seat label of a show. The unique index is what prevents double booking.
type SeatClaim struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID  `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_seat_claim_unique,priority:1"`
	VenueID       uuid.UUID  `json:"venue_id" gorm:"type:uuid;not null;uniqueIndex:idx_seat_claim_unique,priority:2"`
	TimingID      uuid.UUID  `json:"timing_id" gorm:"type:uuid;not null;uniqueIndex:idx_seat_claim_unique,priority:3"`
	SeatLabel     string     `json:"seat_label" gorm:"size:16;not null;uniqueIndex:idx_seat_claim_unique,priority:4"`
	ReservationID uuid.UUID  `json:"reservation_id" gorm:"type:uuid;not null;index"`
	SeatHoldID    uuid.UUID  `json:"seat_hold_id" gorm:"type:uuid;not null;index"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (h *SeatHold) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (c *SeatClaim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Reservation) TableName() string {
	return "reservations"
}

func (SeatHold) TableName() string {
	return "seat_holds"
}

func (SeatClaim) TableName() string {
	return "seat_claims"
}

// Show returns the key of the show this reservation is for
func (r *Reservation) Show() ShowKey {
	return ShowKey{EventID: r.EventID, VenueID: r.VenueID, TimingID: r.TimingID}
}

// TimingRef returns the timing id, or nil when the show has no timing
func (r *Reservation) TimingRef() *uuid.UUID {
	if r.TimingID == uuid.Nil {
		return nil
	}
	id := r.TimingID
	return &id
}

// Seats returns every seat label across the reservation's holds
func (r *Reservation) Seats() []string {
	var seats []string
	for _, hold := range r.Holds {
		seats = append(seats, hold.Seats...)
	}
	return seats
}

// Hold returns the hold with the given id, or the first hold when id is uuid.Nil
func (r *Reservation) Hold(id uuid.UUID) *SeatHold {
	for i := range r.Holds {
		if id == uuid.Nil || r.Holds[i].ID == id {
			return &r.Holds[i]
		}
	}
	return nil
}

// IsExpired reports whether a pending reservation has passed its deadline
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == StatusPending && r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// TotalAmount sums the amount due across holds
func (r *Reservation) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, hold := range r.Holds {
		total = total.Add(hold.Amount)
	}
	return total
}
