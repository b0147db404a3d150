package vault

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from Vault. It carries the status code and
// the error strings from Vault's standard {"errors": [...]} envelope.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return strings.Join(e.Messages, ", ")
}

// TransportError wraps a failure to reach Vault at all (DNS, connect,
// timeout). It is distinct from APIError so callers can tell "Vault said no"
// from "Vault never answered".
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a Vault 404. List operations treat a 404
// as an empty result rather than a failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
