package apperrors

import (
	"errors"
	"net/http"
)

// Domain error taxonomy. Handlers map these to HTTP statuses; none of them
// are transient, so nothing retries them.
var (
	// ErrInvalidOperation marks malformed or self-referential requests.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotFound marks a missing or inaccessible record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state-invariant violation (e.g. duplicate pair).
	ErrConflict = errors.New("conflict")

	// ErrForbidden marks a role or ownership guard violation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated marks a missing or invalid credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)

var statusRules = []struct {
	err    error
	status int
}{
	{ErrInvalidOperation, http.StatusBadRequest},
	{ErrConflict, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrForbidden, http.StatusForbidden},
	{ErrUnauthenticated, http.StatusUnauthorized},
}

// HTTPStatus maps a domain error to its response status. Anything outside
// the taxonomy is a server error.
func HTTPStatus(err error) int {
	for _, rule := range statusRules {
		if errors.Is(err, rule.err) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}
