package lifecycle

import (
	"errors"
	"net/http"
)

// Error kinds reported to the caller. Handlers map them to HTTP statuses via
// HTTPStatus; none of these are retried automatically.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("status precondition not met")
	ErrCapacityExceeded    = errors.New("assignee capacity exceeded")
	ErrDeadlinePassed      = errors.New("deadline has passed")
	ErrDuplicateAssignment = errors.New("already assigned")
	ErrInvalidInput        = errors.New("invalid input")
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrDeadlinePassed):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateAssignment):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
