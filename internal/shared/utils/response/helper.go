package response

import (
	"errors"
	"net/http"

	"bookd/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps service errors onto the standard error envelope.
// Anything not recognised is reported as a 500 without leaking details.
func RespondError(c *gin.Context, err error) {
	code := StatusFor(err)
	if seats := apperrors.ConflictingSeats(err); seats != nil {
		RespondJSON(c, "error", code, "Some seats are already booked", nil, gin.H{"conflictingSeats": seats})
		return
	}
	switch code {
	case http.StatusInternalServerError:
		RespondJSON(c, "error", code, "Internal server error", nil, nil)
	default:
		RespondJSON(c, "error", code, err.Error(), nil, nil)
	}
}

// StatusFor returns the HTTP status code for a service error
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrSeatConflict):
		// Clients read conflictingSeats from the 400 body to adjust their selection
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAlreadyExists),
		errors.Is(err, apperrors.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrPaymentVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrPaymentProviderDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondValidationError reports a request binding failure
func RespondValidationError(c *gin.Context, err error) {
	RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
}
