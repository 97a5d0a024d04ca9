package bookings

import (
	"net/http"

	"bookd/internal/shared/middleware"
	"bookd/internal/shared/utils/params"
	"bookd/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateBooking(c *gin.Context)
	ListEventBookings(c *gin.Context)
	ListUserBookings(c *gin.Context)
	ListAllBookings(c *gin.Context)
	GetAvailability(c *gin.Context)
	GetReservation(c *gin.Context)
	CancelReservation(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateBooking godoc
// @Summary Reserve seats for a show
// @Description Seats stay held until payment or until the hold expires. Conflicting seats are listed in errors.conflictingSeats.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Seat selection"
// @Success 201 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /bookings [post]
func (ctrl *controller) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, _ := middleware.CurrentUser(c)
	booking, err := ctrl.service.CreateBooking(c.Request.Context(), caller, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Seats reserved, complete payment before the hold expires", booking, nil)
}

// ListEventBookings godoc
// @Summary Confirmed bookings of an event, optionally narrowed to a venue and timing
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param venueId path string false "Venue ID"
// @Param timingId path string false "Timing ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /bookings/event/{eventId}/{venueId}/{timingId} [get]
func (ctrl *controller) ListEventBookings(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	var venueID, timingID *uuid.UUID
	if raw := c.Param("venueId"); raw != "" {
		id, ok := params.OptionalUUID(c, raw, "venueId")
		if !ok {
			return
		}
		venueID = &id
	}
	if raw := c.Param("timingId"); raw != "" {
		id, ok := params.OptionalUUID(c, raw, "timingId")
		if !ok {
			return
		}
		timingID = &id
	}

	views, err := ctrl.service.ListEventBookings(c.Request.Context(), eventID, venueID, timingID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", views, nil)
}

// ListUserBookings godoc
// @Summary Paid bookings of one user
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /bookings/user/{userId} [get]
func (ctrl *controller) ListUserBookings(c *gin.Context) {
	userID, ok := params.UUID(c, "userId")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	views, err := ctrl.service.ListUserBookings(c.Request.Context(), caller, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", views, nil)
}

func (ctrl *controller) ListAllBookings(c *gin.Context) {
	views, err := ctrl.service.ListAllBookings(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", views, nil)
}

// GetAvailability godoc
// @Summary Taken seats of a show for rendering the seat map
// @Tags bookings
// @Produce json
// @Param eventId path string true "Event ID"
// @Param venueId path string true "Venue ID"
// @Param timingId query string false "Timing ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /bookings/availability/{eventId}/{venueId} [get]
func (ctrl *controller) GetAvailability(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}
	venueID, ok := params.UUID(c, "venueId")
	if !ok {
		return
	}

	var timingID *uuid.UUID
	if raw := c.Query("timingId"); raw != "" {
		id, ok := params.OptionalUUID(c, raw, "timingId")
		if !ok {
			return
		}
		timingID = &id
	}

	availability, err := ctrl.service.Availability(c.Request.Context(), eventID, venueID, timingID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Availability retrieved successfully", availability, nil)
}

func (ctrl *controller) GetReservation(c *gin.Context) {
	id, ok := params.UUID(c, "id")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	reservation, err := ctrl.service.GetReservation(c.Request.Context(), caller, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", reservation, nil)
}

// CancelReservation godoc
// @Summary Cancel a reservation that has not been paid yet
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Router /reservations/{id}/cancel [post]
func (ctrl *controller) CancelReservation(c *gin.Context) {
	id, ok := params.UUID(c, "id")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	reservation, err := ctrl.service.CancelReservation(c.Request.Context(), caller, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation cancelled successfully", reservation, nil)
}
