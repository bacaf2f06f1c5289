package tcapi

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by any operation attempted without an active
// session. The client never re-authenticates on its own; callers decide
// when to log in again.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthReason classifies a login failure.
type AuthReason int

const (
	// ReasonInvalidCredentials means the server rejected the user/password.
	ReasonInvalidCredentials AuthReason = iota
	// ReasonUnreachable means the server could not be reached or answered
	// with something other than a credential rejection.
	ReasonUnreachable
)

// AuthError reports a failed login.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	switch e.Reason {
	case ReasonInvalidCredentials:
		return "login rejected: invalid credentials"
	default:
		if e.Err != nil {
			return fmt.Sprintf("server unreachable: %v", e.Err)
		}
		return "server unreachable"
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError wraps a network failure or a non-2xx answer from the
// server. It is always surfaced to the caller, never retried here.
type TransportError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s: status=%d body=%s", e.Service, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
