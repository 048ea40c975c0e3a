package zabbix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned before any network call when the
	// params of a request do not satisfy the method's constraints.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrUnknownResponse is returned when a response carries neither result
	// nor error.
	ErrUnknownResponse = errors.New("response has neither result nor error")

	// ErrLogout is returned when user.logout does not answer true. The
	// session may still be open on the server.
	ErrLogout = errors.New("logout failed, session may not be released")
)

// ProtocolError is returned for any HTTP status other than 200.
type ProtocolError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("HTTP error from %s: %s", e.URL, e.Status)
}
