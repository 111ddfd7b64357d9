package errors

import "errors"

var (
	ErrNotFound = errors.New("kyc validation not found")

	ErrInvalidID = errors.New("invalid kyc validation ID format")

	ErrVersionConflict = errors.New("kyc validation was modified concurrently")
)
