package domain

import "errors"

var (
	// ErrForbidden is returned when the current identity lacks the admin role.
	ErrForbidden = errors.New("forbidden: admin role required")
	// ErrUnauthenticated is returned when an operation needs a logged-in user.
	ErrUnauthenticated = errors.New("unauthenticated: login required")
	// ErrInvalidCredentials is returned by login for an unknown identifier/secret pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingField is returned by login when the identifier or secret is empty.
	ErrMissingField = errors.New("identifier and secret are required")
	// ErrInvalidUpdate indicates an update command that would break a question invariant.
	ErrInvalidUpdate = errors.New("invalid question update")
	// ErrInvalidQuestion indicates authoring input rejected by form validation.
	ErrInvalidQuestion = errors.New("invalid question")
)
