package http

import (
	"errors"
)

var (
	// ErrConfiguration is returned when a request is assembled in a way the
	// method table or the builder state does not allow.
	ErrConfiguration = errors.New("configuration error")

	// ErrParse is returned when a proxy descriptor or a JSON body cannot be parsed.
	ErrParse = errors.New("parse error")

	// ErrLookup is returned when a requested header block, header or cookie is absent.
	ErrLookup = errors.New("lookup error")
)

// TransportError carries a failure reported by the transport. It is recorded
// on the Response and never returned from Execute, so headers and body that
// did arrive remain available.
type TransportError struct {
	Message string
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return "transport error: " + e.Message
}
