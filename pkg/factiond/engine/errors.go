package engine

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an operation error to the status code the API returns
// for it. Unrecognized errors are internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrCooldown):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
