package guauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEndpoint is returned when the configured base URL and request
	// path do not combine into a usable URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrNoResponseBody is returned when the backend answers 2xx with an
	// empty body where a payload is required.
	ErrNoResponseBody = errors.New("no response body")
	// ErrMalformedResponse is returned when a response body cannot be decoded
	// into the expected payload.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrAuthenticationRequired is returned when a call needs a session token
	// that is absent, or when the backend rejects the current token. In the
	// second case the session has already been cleared.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrBuilderUsed is returned by Build when the builder has already
	// produced a client.
	ErrBuilderUsed = errors.New("builder already used")

	errConflictingStores = errors.New("WithSessionStore and WithRedis are mutually exclusive")
)

// ServerError is the rejection returned for any non-2xx status other than
// the authentication-failure code. Message carries the backend-provided
// message when one could be decoded.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error %d", e.Code)
	}
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// errorMessage renders err the way the flow surfaces it to users: the
// backend message when present, otherwise the given fallback.
func errorMessage(err error, fallback string) string {
	var srv *ServerError
	if errors.As(err, &srv) && srv.Message != "" {
		return srv.Message
	}
	if errors.Is(err, ErrAuthenticationRequired) {
		return "Authentication required or failed."
	}
	return fallback
}
