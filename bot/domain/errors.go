package domain

import "errors"

var (
	// ErrInvalidCode is returned for unknown or already redeemed activation codes.
	ErrInvalidCode = errors.New("activation code invalid or already used")
	// ErrNotFound is returned when a referenced guide or user does not exist.
	ErrNotFound = errors.New("not found")
)
