package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// unique constraint violation (email, transaction id)
	ErrDuplicate = errors.New("duplicate")
	// row still referenced by another table
	ErrInUse = errors.New("in use")
)
