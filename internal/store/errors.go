package store

import "errors"

var (
	// ErrPlaceNotFound is returned when no place exists with the given ID.
	ErrPlaceNotFound = errors.New("place not found")
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when saving a user whose email belongs to another user.
	ErrEmailExists = errors.New("email already in use")
	// ErrConflict is returned when a transaction lost a race with a concurrent writer.
	ErrConflict = errors.New("transaction conflict")
	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store closed")
)
