package events

import (
	"net/http"

	"bookd/internal/shared/middleware"
	"bookd/internal/shared/utils/params"
	"bookd/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	ListEvents(c *gin.Context)
	GetEvent(c *gin.Context)
	GetVenue(c *gin.Context)
	CreateEvent(c *gin.Context)
	AddVenue(c *gin.Context)
	AddTiming(c *gin.Context)
	DeleteEvent(c *gin.Context)
	ListOrganiserEvents(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// ListEvents godoc
// @Summary Browse events
// @Tags events
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Free text search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.StandardApiResponse
// @Router /events [get]
func (ctrl *controller) ListEvents(c *gin.Context) {
	var query EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	events, err := ctrl.service.ListEvents(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", events, nil)
}

// GetEvent godoc
// @Summary Event details with venues and timings
// @Tags events
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /events/{eventId} [get]
func (ctrl *controller) GetEvent(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	event, err := ctrl.service.GetEventDetail(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

func (ctrl *controller) GetVenue(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}
	venueID, ok := params.UUID(c, "venueId")
	if !ok {
		return
	}

	venue, err := ctrl.service.GetVenueDetail(c.Request.Context(), eventID, venueID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Venue retrieved successfully", venue, nil)
}

// CreateEvent godoc
// @Summary Create an event, or add a venue to the organiser's matching event
// @Tags organiser
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "Event"
// @Success 201 {object} response.StandardApiResponse
// @Router /organiser/events [post]
func (ctrl *controller) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, _ := middleware.CurrentUser(c)
	result, err := ctrl.service.CreateEvent(c.Request.Context(), caller, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	message := "Event created successfully"
	if result.Appended {
		message = "Venue added to existing event"
	}
	response.RespondJSON(c, "success", http.StatusCreated, message, result, nil)
}

func (ctrl *controller) AddVenue(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	var req CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, _ := middleware.CurrentUser(c)
	venue, err := ctrl.service.AddVenue(c.Request.Context(), caller, eventID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Venue added successfully", venue, nil)
}

func (ctrl *controller) AddTiming(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}
	venueID, ok := params.UUID(c, "venueId")
	if !ok {
		return
	}

	var req CreateTimingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, _ := middleware.CurrentUser(c)
	timing, err := ctrl.service.AddTiming(c.Request.Context(), caller, eventID, venueID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Timing added successfully", timing, nil)
}

func (ctrl *controller) DeleteEvent(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	if err := ctrl.service.DeleteEvent(c.Request.Context(), caller, eventID); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event deleted successfully", nil, nil)
}

func (ctrl *controller) ListOrganiserEvents(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	events, err := ctrl.service.ListOrganiserEvents(c.Request.Context(), caller.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", events, nil)
}
