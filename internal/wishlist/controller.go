package wishlist

import (
	"net/http"

	"bookd/internal/shared/middleware"
	"bookd/internal/shared/utils/params"
	"bookd/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// List godoc
// @Summary List the caller's saved events
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.StandardApiResponse
// @Router /wishlist [get]
func (ctrl *Controller) List(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	wishlist, err := ctrl.service.List(c.Request.Context(), caller.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Wishlist retrieved successfully", wishlist, nil)
}

// Add godoc
// @Summary Save an event to the wishlist
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /wishlist/{eventId} [post]
func (ctrl *Controller) Add(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	wishlist, err := ctrl.service.Add(c.Request.Context(), caller.ID, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event added to wishlist", wishlist, nil)
}

func (ctrl *Controller) Remove(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	wishlist, err := ctrl.service.Remove(c.Request.Context(), caller.ID, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event removed from wishlist", wishlist, nil)
}
