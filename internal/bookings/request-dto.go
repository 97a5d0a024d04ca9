package bookings

// CreateBookingRequest is the seat selection submitted by an audience member.
// UserID defaults to the caller; only admins may book on behalf of someone else.
type CreateBookingRequest struct {
	EventID  string   `json:"eventId" binding:"required,uuid"`
	VenueID  string   `json:"venueId" binding:"required,uuid"`
	TimingID *string  `json:"timingId,omitempty" binding:"omitempty,uuid"`
	UserID   *string  `json:"userId,omitempty" binding:"omitempty,uuid"`
	Seats    []string `json:"seats"`
}
