package api

import (
	"errors"
	"net/http"

	"github.com/safing/rpsldb/database"
)

var (
	errMissingParameter = errors.New("missing parameter")
	errInvalidParameter = errors.New("invalid parameter")
)

// errorResponse is the body of failed requests.
type errorResponse struct {
	Status int    `json:"status" msgpack:"status" cbor:"status"`
	Error  string `json:"error" msgpack:"error" cbor:"error"`
}

// statusOf maps err to an HTTP status code.
func statusOf(err error) int {
	switch {
	case database.IsNotFound(err):
		return http.StatusNotFound
	case database.IsValidation(err),
		errors.Is(err, errMissingParameter),
		errors.Is(err, errInvalidParameter):
		return http.StatusBadRequest
	case database.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, database.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
