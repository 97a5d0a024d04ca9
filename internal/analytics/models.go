package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardAnalytics summarises the whole ledger for admins
type DashboardAnalytics struct {
	ConfirmedReservations int64            `json:"confirmed_reservations"`
	LivePendingHolds      int64            `json:"live_pending_holds"`
	CancelledByReason     map[string]int64 `json:"cancelled_by_reason"`
	SeatsSold             int64            `json:"seats_sold"`
	Revenue               decimal.Decimal  `json:"revenue"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// ShowSales is the sell-through of one venue/timing
type ShowSales struct {
	VenueID   string  `json:"venue_id"`
	Location  string  `json:"location"`
	TimingID  *string `json:"timing_id,omitempty"`
	StartTime string  `json:"start_time,omitempty"`
	Capacity  int     `json:"capacity"`
	SeatsSold int64   `json:"seats_sold"`
	Occupancy float64 `json:"occupancy"`
}

type EventAnalytics struct {
	EventID     string          `json:"event_id"`
	Name        string          `json:"name"`
	SeatsSold   int64           `json:"seats_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
	Shows       []ShowSales     `json:"shows"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type reasonCount struct {
	Reason string
	Total  int64
}

type showCount struct {
	VenueID  string
	TimingID string
	Total    int64
}

type sumRow struct {
	Total decimal.Decimal
}
