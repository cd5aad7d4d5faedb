package repository

import "errors"

var (
	// ErrNotFound signals that a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals that an optimistic version check lost a race.
	// Callers should re-read current state and retry.
	ErrConflict = errors.New("concurrent modification")

	// ErrDuplicate signals a uniqueness violation (natural key or slot).
	ErrDuplicate = errors.New("duplicate row")
)
