package domain

import "errors"

// Repository sentinels. Usecases translate them into apperror kinds.
var (
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned by conditional writes whose precondition no longer holds.
	ErrConflict = errors.New("write precondition failed")
	// ErrCorruptDocument marks a stored record that failed boundary validation.
	ErrCorruptDocument = errors.New("stored document failed validation")
)
