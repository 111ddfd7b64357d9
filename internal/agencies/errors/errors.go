package errors

import "errors"

var (
	ErrNotFound = errors.New("agency not found")

	ErrInvalidID = errors.New("invalid agency ID format")

	ErrAssignmentNotFound = errors.New("merchant assignment not found")

	ErrDuplicateAgency = errors.New("agency with this uuid or IATA code already exists")
)
