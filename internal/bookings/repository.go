package bookings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrReservationNotFound = apperrors.NotFound("reservation")

type Repository interface {
	// Conflict-checked creation
	CreateWithClaims(ctx context.Context, reservation *Reservation, now time.Time) error
	TakenSeats(ctx context.Context, show ShowKey, seats []string, now time.Time) ([]string, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	AttachCheckoutSession(ctx context.Context, holdID uuid.UUID, previous, sessionID string) error

	// Lifecycle transitions
	Confirm(ctx context.Context, payment PaymentConfirmation, now time.Time) (*Transition, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*Transition, error)
	ExpireDue(ctx context.Context, now time.Time, limit int) ([]Reservation, error)

	// Ledger queries
	ListConfirmed(ctx context.Context, filter LedgerFilter) ([]Reservation, error)
	CountLiveForEvent(ctx context.Context, eventID uuid.UUID, now time.Time) (int64, error)
}

// PaymentConfirmation is what a verified payment callback carries
type PaymentConfirmation struct {
	ReservationID    uuid.UUID
	HoldID           uuid.UUID
	PaymentReference string
	SessionID        string
	AmountPaid       decimal.Decimal
}

// Transition reports the outcome of a lifecycle call. Changed is false when the
// call was a no-op, e.g. a redelivered payment callback.
type Transition struct {
	Reservation *Reservation
	From        ReservationStatus
	Changed     bool
	Reason      string
}

// LedgerFilter narrows confirmed reservation listings
type LedgerFilter struct {
	EventID  *uuid.UUID
	VenueID  *uuid.UUID
	TimingID *uuid.UUID
	UserID   *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func whereShow(db *gorm.DB, show ShowKey) *gorm.DB {
	return db.Where("event_id = ? AND venue_id = ? AND timing_id = ?", show.EventID, show.VenueID, show.TimingID)
}

// CreateWithClaims inserts the reservation, its holds and one claim per seat in a
// single transaction. A seat claimed by a live reservation, or a claim insert losing
// a race on the unique index, is reported as a SeatConflictError.
func (r *repository) CreateWithClaims(ctx context.Context, reservation *Reservation, now time.Time) error {
	show := reservation.Show()
	seats := reservation.Seats()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := releaseExpired(tx, show, seats, now); err != nil {
			return err
		}

		taken, err := takenSeats(tx, show, seats, now)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return apperrors.NewSeatConflict(taken)
		}

		if err := tx.Create(reservation).Error; err != nil {
			return err
		}

		claims := make([]SeatClaim, 0, len(seats))
		for _, hold := range reservation.Holds {
			for _, seat := range hold.Seats {
				claims = append(claims, SeatClaim{
					EventID:       show.EventID,
					VenueID:       show.VenueID,
					TimingID:      show.TimingID,
					SeatLabel:     seat,
					ReservationID: reservation.ID,
					SeatHoldID:    hold.ID,
					ExpiresAt:     reservation.ExpiresAt,
				})
			}
		}
		return tx.Create(&claims).Error
	})
	if err == nil || errors.Is(err, apperrors.ErrSeatConflict) {
		return err
	}

	if apperrors.IsUniqueViolation(err) {
		// Lost the race to a concurrent booking; report what it took
		taken, lookupErr := r.TakenSeats(ctx, show, seats, now)
		if lookupErr != nil || len(taken) == 0 {
			taken = sortedCopy(seats)
		}
		return apperrors.NewSeatConflict(taken)
	}
	return fmt.Errorf("failed to create reservation: %w", err)
}

// TakenSeats returns the labels of seats that live claims hold. A nil seats slice
// returns every taken seat of the show.
func (r *repository) TakenSeats(ctx context.Context, show ShowKey, seats []string, now time.Time) ([]string, error) {
	return takenSeats(r.db.WithContext(ctx), show, seats, now)
}

func takenSeats(db *gorm.DB, show ShowKey, seats []string, now time.Time) ([]string, error) {
	query := whereShow(db.Model(&SeatClaim{}), show).
		Where("(expires_at IS NULL OR expires_at > ?)", now)
	if seats != nil {
		query = query.Where("seat_label IN ?", seats)
	}

	var taken []string
	if err := query.Pluck("seat_label", &taken).Error; err != nil {
		return nil, fmt.Errorf("failed to read seat claims: %w", err)
	}
	sort.Strings(taken)
	return taken, nil
}

// releaseExpired cancels the pending reservations whose claims on these seats have
// run out, so the seats can be claimed again.
func releaseExpired(tx *gorm.DB, show ShowKey, seats []string, now time.Time) ([]uuid.UUID, error) {
	var reservationIDs []uuid.UUID
	err := whereShow(tx.Model(&SeatClaim{}), show).
		Where("seat_label IN ?", seats).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Distinct().
		Pluck("reservation_id", &reservationIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired claims: %w", err)
	}
	if len(reservationIDs) == 0 {
		return nil, nil
	}
	return cancelPending(tx, reservationIDs, ReasonExpired, now)
}

// lockPending row-locks the still pending reservations among ids. Locks are taken
// in id order so overlapping batches cannot deadlock.
func lockPending(tx *gorm.DB, ids []uuid.UUID) *gorm.DB {
	return database.ForUpdate(tx.Model(&Reservation{})).
		Where("id IN ? AND status = ?", ids, StatusPending).
		Order("id ASC")
}

// cancelPending moves pending reservations to cancelled, fails their holds and
// deletes their claims. It returns the ids that actually changed.
func cancelPending(tx *gorm.DB, ids []uuid.UUID, reason string, now time.Time) ([]uuid.UUID, error) {
	// Locked re-read: a concurrent confirm may have won the row since ids were chosen
	var pending []uuid.UUID
	if err := lockPending(tx, ids).Pluck("id", &pending).Error; err != nil {
		return nil, fmt.Errorf("failed to read pending reservations: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	if err := tx.Model(&Reservation{}).
		Where("id IN ?", pending).
		Updates(map[string]interface{}{
			"status":        StatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  now,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel reservations: %w", err)
	}

	if err := tx.Model(&SeatHold{}).
		Where("reservation_id IN ? AND payment_status = ?", pending, PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": PaymentFailed,
			"failure_reason": reason,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to fail seat holds: %w", err)
	}

	if err := tx.Where("reservation_id IN ?", pending).Delete(&SeatClaim{}).Error; err != nil {
		return nil, fmt.Errorf("failed to release seat claims: %w", err)
	}
	return pending, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return loadReservation(r.db.WithContext(ctx), id)
}

func loadReservation(db *gorm.DB, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := db.Preload("Holds", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return &reservation, nil
}

func (r *repository) AttachCheckoutSession(ctx context.Context, holdID uuid.UUID, previous, sessionID string) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&SeatHold{}).
		Where("id = ? AND checkout_session_id = ? AND payment_status = ?", holdID, previous, PaymentPending).
		Update("checkout_session_id", sessionID)
	if result.Error != nil {
		return fmt.Errorf("failed to attach checkout session: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&SeatHold{}).Where("id = ?", holdID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up seat hold: %w", err)
	}
	if count == 0 {
		return apperrors.NotFound("seat hold")
	}
	return fmt.Errorf("%w: another checkout session is already attached", apperrors.ErrInvalidState)
}

// Confirm applies a payment. It is idempotent: a payment reference that was
// already recorded, or an already paid hold, leaves the ledger untouched.
func (r *repository) Confirm(ctx context.Context, payment PaymentConfirmation, now time.Time) (*Transition, error) {
	var result *Transition

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := loadReservation(database.ForUpdate(tx), payment.ReservationID)
		if err != nil {
			return err
		}
		result = &Transition{Reservation: reservation, From: reservation.Status}

		var seen int64
		if err := tx.Model(&SeatHold{}).
			Where("payment_reference = ?", payment.PaymentReference).
			Count(&seen).Error; err != nil {
			return fmt.Errorf("failed to check payment reference: %w", err)
		}
		if seen > 0 {
			return nil
		}

		hold := reservation.Hold(payment.HoldID)
		if hold == nil {
			return apperrors.NotFound("seat hold")
		}
		if hold.PaymentStatus == PaymentPaid {
			return nil
		}

		if reservation.Status == StatusCancelled {
			if err := reacquireClaims(tx, reservation, hold, now); err != nil {
				if !errors.Is(err, apperrors.ErrSeatConflict) {
					return err
				}
				// Paid too late: someone else holds the seats now
				if err := recordLatePayment(tx, hold, payment, now); err != nil {
					return err
				}
				result.Changed = true
				result.Reason = ReasonSeatsReleased
				return nil
			}
		}

		if err := tx.Model(&SeatClaim{}).
			Where("seat_hold_id = ?", hold.ID).
			Update("expires_at", nil).Error; err != nil {
			return fmt.Errorf("failed to make seat claims permanent: %w", err)
		}

		if err := tx.Model(&SeatHold{}).Where("id = ?", hold.ID).Updates(map[string]interface{}{
			"payment_status":      PaymentPaid,
			"payment_reference":   payment.PaymentReference,
			"checkout_session_id": sessionOr(payment.SessionID, hold.CheckoutSessionID),
			"amount_paid":         payment.AmountPaid,
			"paid_at":             now,
			"failure_reason":      "",
		}).Error; err != nil {
			return fmt.Errorf("failed to mark seat hold paid: %w", err)
		}

		if err := tx.Model(&Reservation{}).Where("id = ?", reservation.ID).Updates(map[string]interface{}{
			"status":        StatusConfirmed,
			"confirmed_at":  now,
			"expires_at":    nil,
			"cancel_reason": "",
			"cancelled_at":  nil,
		}).Error; err != nil {
			return fmt.Errorf("failed to confirm reservation: %w", err)
		}

		result.Changed = true
		result.Reason = ReasonPaid
		return nil
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			// A concurrent delivery of the same callback recorded the reference first
			reservation, loadErr := r.GetByID(ctx, payment.ReservationID)
			if loadErr != nil {
				return nil, loadErr
			}
			return &Transition{Reservation: reservation, From: reservation.Status}, nil
		}
		return nil, err
	}

	reservation, err := r.GetByID(ctx, payment.ReservationID)
	if err != nil {
		return nil, err
	}
	result.Reservation = reservation
	return result, nil
}

// reacquireClaims claims the hold's seats again for a reservation whose claims were
// released. It runs in a savepoint so a unique violation leaves the outer
// transaction usable.
func reacquireClaims(tx *gorm.DB, reservation *Reservation, hold *SeatHold, now time.Time) error {
	show := reservation.Show()
	return tx.Transaction(func(sp *gorm.DB) error {
		if _, err := releaseExpired(sp, show, hold.Seats, now); err != nil {
			return err
		}
		taken, err := takenSeats(sp, show, hold.Seats, now)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return apperrors.NewSeatConflict(taken)
		}

		claims := make([]SeatClaim, 0, len(hold.Seats))
		for _, seat := range hold.Seats {
			claims = append(claims, SeatClaim{
				EventID:       show.EventID,
				VenueID:       show.VenueID,
				TimingID:      show.TimingID,
				SeatLabel:     seat,
				ReservationID: reservation.ID,
				SeatHoldID:    hold.ID,
			})
		}
		if err := sp.Create(&claims).Error; err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewSeatConflict(sortedCopy(hold.Seats))
			}
			return err
		}
		return nil
	})
}

// recordLatePayment stores the payment on a hold that could not get its seats back,
// so a redelivery of the same callback is recognised.
func recordLatePayment(tx *gorm.DB, hold *SeatHold, payment PaymentConfirmation, now time.Time) error {
	err := tx.Model(&SeatHold{}).Where("id = ?", hold.ID).Updates(map[string]interface{}{
		"payment_status":      PaymentFailed,
		"payment_reference":   payment.PaymentReference,
		"checkout_session_id": sessionOr(payment.SessionID, hold.CheckoutSessionID),
		"amount_paid":         payment.AmountPaid,
		"paid_at":             now,
		"failure_reason":      ReasonSeatsReleased,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to record late payment: %w", err)
	}
	return nil
}

func sessionOr(sessionID, fallback string) string {
	if sessionID != "" {
		return sessionID
	}
	return fallback
}

// Cancel releases a pending reservation. Reservations in any other state are left
// as they are and reported with Changed false.
func (r *repository) Cancel(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*Transition, error) {
	var result *Transition

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := loadReservation(database.ForUpdate(tx), id)
		if err != nil {
			return err
		}
		result = &Transition{Reservation: reservation, From: reservation.Status, Reason: reason}

		changed, err := cancelPending(tx, []uuid.UUID{id}, reason, now)
		if err != nil {
			return err
		}
		result.Changed = len(changed) > 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		if result.Reservation, err = r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ExpireDue cancels up to limit pending reservations whose deadline has passed
// and returns them in their new state.
func (r *repository) ExpireDue(ctx context.Context, now time.Time, limit int) ([]Reservation, error) {
	var expired []uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Pick the batch unlocked; cancelPending locks it in id order
		var due []uuid.UUID
		if err := tx.Model(&Reservation{}).
			Where("status = ? AND expires_at <= ?", StatusPending, now).
			Order("expires_at ASC").
			Limit(limit).
			Pluck("id", &due).Error; err != nil {
			return fmt.Errorf("failed to find due reservations: %w", err)
		}
		if len(due) == 0 {
			return nil
		}

		var err error
		expired, err = cancelPending(tx, due, ReasonExpired, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	var reservations []Reservation
	if err := r.db.WithContext(ctx).Preload("Holds").
		Where("id IN ?", expired).
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to load expired reservations: %w", err)
	}
	return reservations, nil
}

func (r *repository) ListConfirmed(ctx context.Context, filter LedgerFilter) ([]Reservation, error) {
	query := r.db.WithContext(ctx).
		Preload("Holds", "payment_status = ?", PaymentPaid).
		Where("status = ?", StatusConfirmed)

	if filter.EventID != nil {
		query = query.Where("event_id = ?", *filter.EventID)
	}
	if filter.VenueID != nil {
		query = query.Where("venue_id = ?", *filter.VenueID)
	}
	if filter.TimingID != nil {
		query = query.Where("timing_id = ?", *filter.TimingID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var reservations []Reservation
	if err := query.Order("created_at DESC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// CountLiveForEvent counts confirmed reservations and pending ones still inside their hold window
func (r *repository) CountLiveForEvent(ctx context.Context, eventID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("event_id = ?", eventID).
		Where("(status = ? OR (status = ? AND expires_at > ?))", StatusConfirmed, StatusPending, now).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func sortedCopy(seats []string) []string {
	out := append([]string(nil), seats...)
	sort.Strings(out)
	return out
}
