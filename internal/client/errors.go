package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned by Session.UpdateUser outside the
	// Authenticated state.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrMalformedResponse means the server answered with a body that does
	// not match the endpoint contract.
	ErrMalformedResponse = errors.New("malformed response")
)

// TransportError is a failure to get any HTTP response at all: connection
// refused, DNS, timeout. It never clears the stored token.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
