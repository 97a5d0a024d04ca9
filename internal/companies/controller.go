package companies

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

// Register godoc
// @Summary Register the organiser's company for verification
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegisterCompanyRequest true "Company details"
// @Success 201 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Router /companies [post]
func (ctrl *Controller) Register(c *gin.Context) {
	var req RegisterCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	caller, _ := middleware.CurrentUser(c)
	company, err := ctrl.service.Register(c.Request.Context(), caller, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Company registered, awaiting verification", company, nil)
}

func (ctrl *Controller) GetMine(c *gin.Context) {
	caller, _ := middleware.CurrentUser(c)
	company, err := ctrl.service.GetMine(c.Request.Context(), caller)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Company retrieved successfully", company, nil)
}

func (ctrl *Controller) List(c *gin.Context) {
	companies, err := ctrl.service.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Companies retrieved successfully", companies, nil)
}

// Verify godoc
// @Summary Verify or revoke an organiser company
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param request body VerifyCompanyRequest true "Verification flag"
// @Success 200 {object} response.StandardApiResponse
// @Router /admin/companies/{id}/verify [patch]
func (ctrl *Controller) Verify(c *gin.Context) {
	id, ok := params.UUID(c, "id")
	if !ok {
		return
	}

	var req VerifyCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondValidationError(c, err)
		return
	}

	company, err := ctrl.service.SetVerified(c.Request.Context(), id, *req.Verified)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Company verification updated", company, nil)
}
