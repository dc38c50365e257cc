package game

import "errors"

// Validation failures. Call sites wrap these with detail; match with errors.Is.
var (
	// ErrInvalidDigit: a digit lies outside the configured alphabet.
	ErrInvalidDigit = errors.New("invalid digit")
	// ErrLengthMismatch: a code does not have the configured length.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrSessionTerminal: the operation is not allowed in the current state.
	ErrSessionTerminal = errors.New("session terminal")
)
