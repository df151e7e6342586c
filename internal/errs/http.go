package errs

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	var notFound *NotFoundError
	var invalid *ValidationError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
