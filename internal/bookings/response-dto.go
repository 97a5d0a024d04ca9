package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingCreatedResponse struct {
	ReservationID string            `json:"reservationId"`
	Status        ReservationStatus `json:"status"`
	Seats         []string          `json:"seats"`
	TotalPrice    decimal.Decimal   `json:"totalPrice"`
	Currency      string            `json:"currency"`
	ExpiresAt     *time.Time        `json:"expiresAt,omitempty"`
}

type SeatHoldResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	Seats            []string        `json:"seats"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	FailureReason    string          `json:"failureReason,omitempty"`
}

type ReservationResponse struct {
	ID           string             `json:"id"`
	EventID      string             `json:"eventId"`
	VenueID      string             `json:"venueId"`
	TimingID     *string            `json:"timingId,omitempty"`
	UserID       string             `json:"userId"`
	Status       ReservationStatus  `json:"status"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty"`
	CancelReason string             `json:"cancelReason,omitempty"`
	TotalPrice   decimal.Decimal    `json:"totalPrice"`
	Holds        []SeatHoldResponse `json:"holds"`
	ConfirmedAt  *time.Time         `json:"confirmedAt,omitempty"`
	CancelledAt  *time.Time         `json:"cancelledAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

type EventSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	PosterURL string `json:"posterUrl,omitempty"`
}

type VenueSummary struct {
	ID         string    `json:"id"`
	Location   string    `json:"location"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	SeatMapURL string    `json:"seatMapUrl,omitempty"`
}

type TimingSummary struct {
	ID        string `json:"id"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type HolderSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// BookingView is a confirmed reservation enriched with catalog display data
type BookingView struct {
	ReservationID string          `json:"reservationId"`
	Event         EventSummary    `json:"event"`
	Venue         VenueSummary    `json:"venue"`
	Timing        *TimingSummary  `json:"timing,omitempty"`
	Holder        *HolderSummary  `json:"holder,omitempty"`
	Seats         []string        `json:"seats"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	Currency      string          `json:"currency"`
	ConfirmedAt   *time.Time      `json:"confirmedAt,omitempty"`
}

type AvailabilityResponse struct {
	EventID    string   `json:"eventId"`
	VenueID    string   `json:"venueId"`
	TimingID   *string  `json:"timingId,omitempty"`
	Capacity   int      `json:"capacity"`
	TakenSeats []string `json:"takenSeats"`
	Available  int      `json:"available"`
}

// CheckoutDetails is what the payment provider needs to charge for a pending hold
type CheckoutDetails struct {
	ReservationID uuid.UUID
	HoldID        uuid.UUID
	UserID        uuid.UUID
	EventName     string
	Location      string
	Seats         []string
	UnitPrice     decimal.Decimal
	Amount        decimal.Decimal
	Currency      string
	ExpiresAt     time.Time

	// Session already attached to the hold, empty when none was opened
	CheckoutSessionID string
}

func (h *SeatHold) ToResponse() SeatHoldResponse {
	resp := SeatHoldResponse{
		ID:            h.ID.String(),
		UserID:        h.UserID.String(),
		Seats:         h.Seats,
		UnitPrice:     h.UnitPrice,
		Amount:        h.Amount,
		Currency:      h.Currency,
		PaymentStatus: h.PaymentStatus,
		AmountPaid:    h.AmountPaid,
		PaidAt:        h.PaidAt,
		FailureReason: h.FailureReason,
	}
	if h.PaymentReference != nil {
		resp.PaymentReference = *h.PaymentReference
	}
	return resp
}

func (r *Reservation) ToResponse() *ReservationResponse {
	resp := &ReservationResponse{
		ID:           r.ID.String(),
		EventID:      r.EventID.String(),
		VenueID:      r.VenueID.String(),
		UserID:       r.UserID.String(),
		Status:       r.Status,
		ExpiresAt:    r.ExpiresAt,
		CancelReason: r.CancelReason,
		TotalPrice:   r.TotalAmount(),
		Holds:        make([]SeatHoldResponse, 0, len(r.Holds)),
		ConfirmedAt:  r.ConfirmedAt,
		CancelledAt:  r.CancelledAt,
		CreatedAt:    r.CreatedAt,
	}
	if timing := r.TimingRef(); timing != nil {
		id := timing.String()
		resp.TimingID = &id
	}
	for i := range r.Holds {
		resp.Holds = append(resp.Holds, r.Holds[i].ToResponse())
	}
	return resp
}
