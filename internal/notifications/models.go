package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReservationEventType names a lifecycle step of a reservation
type ReservationEventType string

const (
	ReservationCreated       ReservationEventType = "reservation.created"
	ReservationConfirmed     ReservationEventType = "reservation.confirmed"
	ReservationCancelled     ReservationEventType = "reservation.cancelled"
	ReservationExpired       ReservationEventType = "reservation.expired"
	ReservationPaymentFailed ReservationEventType = "reservation.payment_failed"
)

// ReservationEvent is the message published for every reservation transition.
// Downstream consumers (email, analytics) live outside this service.
type ReservationEvent struct {
	ID            uuid.UUID            `json:"id"`
	Type          ReservationEventType `json:"type"`
	ReservationID uuid.UUID            `json:"reservation_id"`
	EventID       uuid.UUID            `json:"event_id"`
	VenueID       uuid.UUID            `json:"venue_id"`
	TimingID      *uuid.UUID           `json:"timing_id,omitempty"`
	UserID        uuid.UUID            `json:"user_id"`
	Seats         []string             `json:"seats"`
	Reason        string               `json:"reason,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewReservationEvent stamps an event with a fresh id and time
func NewReservationEvent(eventType ReservationEventType, reservationID uuid.UUID) *ReservationEvent {
	return &ReservationEvent{
		ID:            uuid.New(),
		Type:          eventType,
		ReservationID: reservationID,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON
func (e *ReservationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps every message of one show on the same partition
func (e *ReservationEvent) PartitionKey() string {
	return e.EventID.String() + ":" + e.VenueID.String()
}
