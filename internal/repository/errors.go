package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStatusConflict is returned by a conditional update when the stored
	// status no longer matches the expected one.
	ErrStatusConflict = errors.New("status changed concurrently")

	// ErrDuplicate is returned when a unique field such as an email is taken.
	ErrDuplicate = errors.New("entity already exists")
)
