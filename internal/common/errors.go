// Package common defines shared sentinel errors used across the client layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors (rejected before any state changes).
	ErrValidation  = errors.New("validation error")
	ErrUnroutable  = errors.New("unroutable message")
	ErrMessageSize = errors.New("message too long")
	ErrEmptyBody   = errors.New("empty message body")

	// Permission errors surfaced to the user.
	ErrNotFriends   = errors.New("recipient is not an accepted friend")
	ErrNotGroupUser = errors.New("not a member of this group")
)
