package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Request is the API request passed to endpoint functions.
type Request struct {
	*http.Request

	// URLVars are the variables of the matched route.
	URLVars map[string]string
}

func newRequest(r *http.Request) *Request {
	return &Request{
		Request: r,
		URLVars: mux.Vars(r),
	}
}

// Var returns the route variable name.
func (ar *Request) Var(name string) (string, error) {
	value := ar.URLVars[name]
	if value == "" {
		return "", fmt.Errorf("%w: %s", errMissingParameter, name)
	}
	return value, nil
}

// Query returns all values of the query parameter name.
func (ar *Request) Query(name string) []string {
	return ar.URL.Query()[name]
}

// IntQuery returns the integer query parameter name, or fallback if it is not set.
func (ar *Request) IntQuery(name string, fallback int) (int, error) {
	value := ar.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidParameter, name)
	}
	return n, nil
}
