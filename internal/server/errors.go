package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

func invalidRequestError() error {
	return ErrInvalidRequest
}

// AbortWithError maps domain sentinel errors onto HTTP status codes. Unknown
// errors surface as 500 without leaking internals.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	payload := errorPayload{Type: "internal_error", Message: "internal error"}

	switch {
	case isValidationError(err):
		status = http.StatusBadRequest
		payload = errorPayload{Type: "invalid_request", Message: err.Error()}
	case errors.Is(err, commissiondomain.ErrNotFound),
		errors.Is(err, payoutdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
		payload = errorPayload{Type: "not_found", Message: "resource not found"}
	case errors.Is(err, payoutdomain.ErrClaimConflict),
		errors.Is(err, payoutdomain.ErrVendorLocked),
		errors.Is(err, commissiondomain.ErrInvalidTransition),
		errors.Is(err, payoutdomain.ErrInvalidTransition):
		status = http.StatusConflict
		payload = errorPayload{Type: "conflict", Message: err.Error()}
	case errors.Is(err, payoutdomain.ErrCommissionNotEligible),
		errors.Is(err, payoutdomain.ErrCommissionNotFound):
		status = http.StatusUnprocessableEntity
		payload = errorPayload{Type: "unprocessable", Message: err.Error()}
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: payload})
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, commissiondomain.ErrInvalidVendor),
		errors.Is(err, commissiondomain.ErrInvalidOrder),
		errors.Is(err, commissiondomain.ErrInvalidID),
		errors.Is(err, commissiondomain.ErrInvalidStatus),
		errors.Is(err, commissiondomain.ErrInvalidTimeRange),
		errors.Is(err, commissiondomain.ErrInvalidPageToken),
		errors.Is(err, payoutdomain.ErrInvalidVendor),
		errors.Is(err, payoutdomain.ErrInvalidID),
		errors.Is(err, payoutdomain.ErrEmptySelection),
		errors.Is(err, payoutdomain.ErrInvalidPaymentMethod):
		return true
	default:
		return false
	}
}
