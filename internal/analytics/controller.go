package analytics

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

// GetDashboard godoc
// @Summary Ledger-wide booking and revenue totals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.StandardApiResponse
// @Router /admin/analytics/dashboard [get]
func (ctrl *Controller) GetDashboard(c *gin.Context) {
	dashboard, err := ctrl.service.GetDashboardAnalytics(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Dashboard analytics retrieved successfully", dashboard, nil)
}

// GetEventAnalytics godoc
// @Summary Seats sold and revenue for one event, per show
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 403 {object} response.StandardApiResponse
// @Router /analytics/events/{eventId} [get]
func (ctrl *Controller) GetEventAnalytics(c *gin.Context) {
	eventID, ok := params.UUID(c, "eventId")
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUser(c)
	result, err := ctrl.service.GetEventAnalytics(c.Request.Context(), caller, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event analytics retrieved successfully", result, nil)
}
