package analytics

import (
	"context"
	"fmt"
	"time"

	"bookd/internal/bookings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	GetDashboard(ctx context.Context, now time.Time) (*DashboardAnalytics, error)
	SeatsSoldByShow(ctx context.Context, eventID uuid.UUID) ([]showCount, error)
	EventRevenue(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetDashboard(ctx context.Context, now time.Time) (*DashboardAnalytics, error) {
	db := r.db.WithContext(ctx)
	dashboard := &DashboardAnalytics{CancelledByReason: map[string]int64{}, GeneratedAt: now}

	if err := db.Model(&bookings.Reservation{}).
		Where("status = ?", bookings.StatusConfirmed).
		Count(&dashboard.ConfirmedReservations).Error; err != nil {
		return nil, fmt.Errorf("failed to count confirmed reservations: %w", err)
	}

	if err := db.Model(&bookings.Reservation{}).
		Where("status = ? AND expires_at > ?", bookings.StatusPending, now).
		Count(&dashboard.LivePendingHolds).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending reservations: %w", err)
	}

	var reasons []reasonCount
	if err := db.Model(&bookings.Reservation{}).
		Select("cancel_reason AS reason, COUNT(*) AS total").
		Where("status = ?", bookings.StatusCancelled).
		Group("cancel_reason").
		Scan(&reasons).Error; err != nil {
		return nil, fmt.Errorf("failed to group cancellations: %w", err)
	}
	for _, rc := range reasons {
		dashboard.CancelledByReason[rc.Reason] = rc.Total
	}

	// Paid claims never expire
	if err := db.Model(&bookings.SeatClaim{}).
		Where("expires_at IS NULL").
		Count(&dashboard.SeatsSold).Error; err != nil {
		return nil, fmt.Errorf("failed to count sold seats: %w", err)
	}

	var revenue sumRow
	if err := db.Model(&bookings.SeatHold{}).
		Select("COALESCE(SUM(amount_paid), 0) AS total").
		Where("payment_status = ?", bookings.PaymentPaid).
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	dashboard.Revenue = revenue.Total

	return dashboard, nil
}

func (r *repository) SeatsSoldByShow(ctx context.Context, eventID uuid.UUID) ([]showCount, error) {
	var counts []showCount
	err := r.db.WithContext(ctx).Model(&bookings.SeatClaim{}).
		Select("venue_id, timing_id, COUNT(*) AS total").
		Where("event_id = ? AND expires_at IS NULL", eventID).
		Group("venue_id, timing_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count seats by show: %w", err)
	}
	return counts, nil
}

func (r *repository) EventRevenue(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	var revenue sumRow
	err := r.db.WithContext(ctx).Model(&bookings.SeatHold{}).
		Select("COALESCE(SUM(seat_holds.amount_paid), 0) AS total").
		Joins("JOIN reservations ON reservations.id = seat_holds.reservation_id").
		Where("reservations.event_id = ? AND seat_holds.payment_status = ?", eventID, bookings.PaymentPaid).
		Scan(&revenue).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum event revenue: %w", err)
	}
	return revenue.Total, nil
}
