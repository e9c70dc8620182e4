package backend

import "errors"

var (
	// ErrUnavailable means the service could not be reached at all
	// (connection refused, DNS failure, timeout).
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNotFound means a row lookup matched nothing. Distinguishable from
	// generic failures: the reconciler's self-heal branch depends on it.
	ErrNotFound = errors.New("no matching row")

	// ErrUnauthorized means the current token was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmailNotConfirmed means the account exists but its email address
	// has not been verified yet. The session must not be kept.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
)

// AuthError carries the service's human-readable message for credential
// failures ("Invalid login credentials", "User already registered", ...).
// The message is shown to the user as-is.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }
