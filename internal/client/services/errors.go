package services

import "errors"

var (
	// ErrSignInRequired means the operation needs an identity and none is
	// present. The caller should prompt for sign-in; nothing was sent to the
	// backend.
	ErrSignInRequired = errors.New("sign in required")

	// ErrAdminOnly means the current user view does not carry the admin
	// flag. This is a UX gate; the backend enforces the real authorization.
	ErrAdminOnly = errors.New("admin access required")

	// ErrUnknownGame means the requested id is not in the current catalog.
	ErrUnknownGame = errors.New("unknown game")
)
