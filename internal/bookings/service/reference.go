package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"yxplore/pkg/model"
)

var alphabetSize = big.NewInt(int64(len(model.ReferenceAlphabet)))

// GenerateReference draws an 8 character booking reference from [A-Z0-9].
// Uniqueness is left to the unique index on bookings.reference.
func GenerateReference() (string, error) {
	buf := make([]byte, model.ReferenceLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking reference: %w", err)
		}
		buf[i] = model.ReferenceAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// IsReference reports whether s has the shape of a booking reference.
func IsReference(s string) bool {
	if len(s) != model.ReferenceLength {
		return false
	}
	for _, c := range s {
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
