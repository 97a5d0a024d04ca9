package bookings

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// IsValid checks if the reservation status is valid
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) String() string {
	return string(s)
}

// CanBeCancelled checks if a reservation with this status can still be cancelled by its holder
func (s ReservationStatus) CanBeCancelled() bool {
	return s == StatusPending
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// Reasons recorded when a reservation leaves the pending state
const (
	ReasonPaid          = "paid"
	ReasonExpired       = "expired"
	ReasonPaymentFailed = "payment_failed"
	ReasonUserCancelled = "user_cancelled"
	ReasonSeatsReleased = "seats_released"
)
