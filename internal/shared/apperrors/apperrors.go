package apperrors

import (
	"errors"
	"net/http"

	"car-rental/internal/booking/domain"
)

// StatusCode maps domain errors onto HTTP status codes. Anything the
// taxonomy does not recognize is a 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPaymentAuthorization), errors.Is(err, domain.ErrPaymentCapture):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
