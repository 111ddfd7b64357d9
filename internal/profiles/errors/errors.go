package errors

import "errors"

var (
	ErrNotFound = errors.New("profile not found")

	ErrInvalidID = errors.New("invalid profile ID format")

	ErrAccountNotFound = errors.New("user account not found")

	// ErrConflictingProfile is returned when a user already holds the other
	// side of the client/merchant pair.
	ErrConflictingProfile = errors.New("user already holds a conflicting profile")

	ErrProfileExists = errors.New("profile already exists for user")

	ErrVersionConflict = errors.New("profile was modified concurrently")
)
