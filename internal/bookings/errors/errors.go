package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDuplicateReference = errors.New("booking reference already taken")

	ErrDuplicatePassenger = errors.New("passenger already exists on booking")

	ErrDetailNotFound = errors.New("booking detail not found")

	ErrVersionConflict = errors.New("booking was modified concurrently")
)
