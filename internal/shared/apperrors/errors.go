package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel errors shared by every service. Controllers map them to HTTP
// status codes through response.RespondError.
var (
	ErrNotFound                  = errors.New("resource not found")
	ErrInvalidInput              = errors.New("invalid input")
	ErrSeatConflict              = errors.New("seats already taken")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrForbidden                 = errors.New("forbidden")
	ErrAlreadyExists             = errors.New("resource already exists")
	ErrInvalidState              = errors.New("invalid state transition")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrPaymentProviderDown       = errors.New("payment provider unavailable")
)

// SeatConflictError lists the requested seats that another reservation holds.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already taken: %s", strings.Join(e.Seats, ", "))
}

func (e *SeatConflictError) Unwrap() error {
	return ErrSeatConflict
}

// NewSeatConflict builds a SeatConflictError for the given labels
func NewSeatConflict(seats []string) error {
	return &SeatConflictError{Seats: seats}
}

// NotFound wraps ErrNotFound with the kind of resource that was missing
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// Invalid wraps ErrInvalidInput with a reason
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// ConflictingSeats extracts the seat list from err, if any
func ConflictingSeats(err error) []string {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict.Seats
	}
	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint,
// for both the PostgreSQL driver and the SQLite driver used in tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
